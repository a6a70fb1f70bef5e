package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Valid(t *testing.T) {
	v := NewJWTVerifier(secret)
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
		UserID: "7C9E6679-7425-40DE-944B-E07FC1F90AE7",
		Role:   "reader",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", id.UserID)
	assert.Equal(t, "reader", id.Role)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(secret)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "empty", token: "", wantMsg: "Token is missing"},
		{name: "garbage", token: "not.a.jwt", wantMsg: "Auth failed"},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{
				UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			}),
			wantMsg: "Auth failed",
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
				UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				},
			}),
			wantMsg: "Auth failed: token expired",
		},
		{
			name:    "missing user id",
			token:   sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{Role: "reader"}),
			wantMsg: "Auth failed",
		},
		{
			name:    "unsigned",
			token:   sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{UserID: "u1"}),
			wantMsg: "Auth failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(context.Background(), tt.token)
			assert.Nil(t, id)
			assert.True(t, errors.Is(err, apperr.ErrAuth), "got %v", err)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}
