package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad text"), http.StatusBadRequest},
		{"self action", SelfAction("own article"), http.StatusBadRequest},
		{"already reacted", AlreadyReacted("twice"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("not yours"), http.StatusForbidden},
		{"auth", Auth("no token"), http.StatusUnauthorized},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("remove comment: %w", NotFound("gone")), http.StatusNotFound},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("edit: %w", Unauthorized("You can only edit your own comments"))
	if got := Message(err, "fallback"); got != "You can only edit your own comments" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("pq: deadlock detected"), "Something went wrong"); got != "Something went wrong" {
		t.Errorf("Message() leaked storage error: %q", got)
	}
}

func TestErrorsIs(t *testing.T) {
	err := SelfAction("Cannot like your own article")
	if !errors.Is(err, ErrSelfAction) {
		t.Error("expected errors.Is(err, ErrSelfAction)")
	}
	if errors.Is(err, ErrAlreadyReacted) {
		t.Error("self action must not match ErrAlreadyReacted")
	}
}
