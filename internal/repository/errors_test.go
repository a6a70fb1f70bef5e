package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

func TestMapError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"unique violation", &pq.Error{Code: "23505", Constraint: "uq_reactions_user_article_opinion"}, ErrDuplicate},
		{"foreign key violation", &pq.Error{Code: "23503", Constraint: "replies_comment_id_fkey"}, ErrMissingReference},
		{"other driver error", &pq.Error{Code: "57014"}, nil},
		{"plain error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError("op", tt.err)
			if got == nil {
				t.Fatal("expected an error")
			}
			if tt.target != nil && !errors.Is(got, tt.target) {
				t.Errorf("mapError() = %v, want wrapping %v", got, tt.target)
			}
			if tt.target == nil && (errors.Is(got, ErrDuplicate) || errors.Is(got, ErrMissingReference)) {
				t.Errorf("mapError() = %v, should not be a constraint error", got)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if err := mapError("op", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
