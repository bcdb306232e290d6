package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when a token cannot be mapped to a
// user identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified identity behind a connection or request.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity may use administrative endpoints.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

// Resolver maps a bearer token to a verified identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver validates HMAC-signed tokens issued by the platform's
// auth service. The subject claim carries the user id.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver builds a resolver for the given shared secret.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve parses and validates the token.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
