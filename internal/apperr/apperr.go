// Package apperr defines the error taxonomy shared by the engagement services
// and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Sentinel kinds. Every *Error wraps exactly one of them so callers can use
// errors.Is without caring about the message.
var (
	ErrValidation     = errors.New("validation error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSelfAction     = errors.New("self action")
	ErrAlreadyReacted = errors.New("already reacted")
	ErrNotFound       = errors.New("not found")
	ErrAuth           = errors.New("authentication failed")
)

// Error is a rejected request with a human-readable message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation reports malformed input.
func Validation(msg string) error { return newError(ErrValidation, msg) }

// Unauthorized reports that the caller does not own the resource.
func Unauthorized(msg string) error { return newError(ErrUnauthorized, msg) }

// SelfAction reports an author reacting to their own article.
func SelfAction(msg string) error { return newError(ErrSelfAction, msg) }

// AlreadyReacted reports a duplicate reaction or bookmark.
func AlreadyReacted(msg string) error { return newError(ErrAlreadyReacted, msg) }

// NotFound reports a missing article, comment or reply.
func NotFound(msg string) error { return newError(ErrNotFound, msg) }

// Auth reports a missing or invalid credential.
func Auth(msg string) error { return newError(ErrAuth, msg) }

// HTTPStatus maps err onto a response status. Anything outside the taxonomy
// is an internal failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrSelfAction),
		errors.Is(err, ErrAlreadyReacted):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message of a taxonomy error, or fallback
// for anything else so storage details never leak to clients.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}
	return fallback
}
