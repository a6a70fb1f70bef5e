package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRef identifies a user for display next to comments and replies.
type UserRef struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// NormalizeID returns the canonical form of an identifier so that ids coming
// from tokens, path params and the database compare equal.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return strings.ToLower(id)
}

// SameID compares two identifiers after normalisation.
func SameID(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeID(a) == NormalizeID(b)
}
