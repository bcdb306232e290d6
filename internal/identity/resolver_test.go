package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestResolveValidToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", tokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	id, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-42", id.UserID)
	require.True(t, id.IsAdmin())
}

func TestResolveRejectsEmptyToken(t *testing.T) {
	resolver := NewJWTResolver("secret")

	_, err := resolver.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsWrongSecret(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "other-secret", tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
	})

	_, err := resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsMissingSubject(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", tokenClaims{Role: "user"})

	_, err := resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
