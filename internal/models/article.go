package models

import (
	"time"
)

// ArticleRef is the Content Catalog's view of an article that the engagement
// services need: identity, authorship and visibility.
type ArticleRef struct {
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Title     string    `json:"title" db:"title"`
	IsPublic  bool      `json:"is_public" db:"is_public"`
	Hidden    bool      `json:"hidden" db:"hidden"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsAuthoredBy reports whether userID wrote the article.
func (a *ArticleRef) IsAuthoredBy(userID string) bool {
	return SameID(a.AuthorID, userID)
}
