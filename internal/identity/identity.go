// Package identity resolves bearer tokens to the calling user.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/article-engagement-api/internal/apperr"
	"github.com/article-engagement-api/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// Identity is the verified caller
type Identity struct {
	UserID string
	Role   string
}

// Provider verifies a token and returns the caller it belongs to
type Provider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Claims is the token payload issued by the auth service
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens against a shared secret
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify validates signature and expiry. Every failure is an apperr.ErrAuth.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Auth("Token is missing")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperr.Auth("Auth failed: token expired")
		}
		return nil, apperr.Auth("Auth failed")
	}
	if !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, apperr.Auth("Auth failed")
	}

	return &Identity{
		UserID: models.NormalizeID(claims.UserID),
		Role:   claims.Role,
	}, nil
}
