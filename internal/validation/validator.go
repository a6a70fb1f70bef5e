package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// textInput carries comment and reply bodies through the struct validator.
// validator counts string length in runes.
type textInput struct {
	Text string `validate:"required,min=1,max=200"`
}

// Validator checks user-supplied engagement input
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateText checks a comment or reply body. what names the resource in the
// message, e.g. "Comment" or "Reply".
func (v *Validator) ValidateText(what, text string) error {
	err := v.validate.Struct(textInput{Text: text})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating %s text: %w", strings.ToLower(what), err)
	}

	switch fieldErrs[0].Tag() {
	case "max":
		return apperr.Validation(fmt.Sprintf("%s may not exceed %d characters.", what, models.MaxTextLength))
	default:
		return apperr.Validation(fmt.Sprintf("%s text is required.", what))
	}
}

// ValidateID checks that id is a UUID and returns its canonical form.
func (v *Validator) ValidateID(what, id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("Invalid %s id", what))
	}
	return parsed.String(), nil
}

// ValidateReactionKind parses the wire name of a reaction kind
func (v *Validator) ValidateReactionKind(s string) (models.ReactionKind, error) {
	kind, ok := models.ParseReactionKind(strings.ToLower(s))
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("Unknown reaction kind %q", s))
	}
	return kind, nil
}

// ValidateLimit rejects negative limits. Zero means no limit.
func (v *Validator) ValidateLimit(limit int) error {
	if limit < 0 {
		return apperr.Validation("limit must not be negative")
	}
	return nil
}
