// Package identity answers the one question every remote path asks first:
// which user id is signed in. Identity comes from the auth backend's session
// token; this layer only decodes it, it never validates signatures (the
// remote store enforces authorization server-side).
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("identity: no authenticated user")

type Provider interface {
	// CurrentUserID returns ErrUnauthenticated when no session exists or
	// the session has expired.
	CurrentUserID(ctx context.Context) (string, error)
}

// TokenProvider extracts the subject from a stored session JWT. The parse is
// deliberately unverified: the client does not hold the issuer's key, and a
// forged subject only lets a caller talk to rows the server will reject.
type TokenProvider struct {
	token string
	now   func() time.Time
}

func NewTokenProvider(token string) *TokenProvider {
	return &TokenProvider{token: token, now: time.Now}
}

func (p *TokenProvider) CurrentUserID(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrUnauthenticated
	}
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(p.token, &claims); err != nil {
		return "", ErrUnauthenticated
	}
	if claims.Subject == "" {
		return "", ErrUnauthenticated
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return "", ErrUnauthenticated
	}
	return claims.Subject, nil
}

// Static is a fixed identity for tests and local-only runs.
type Static string

func (s Static) CurrentUserID(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrUnauthenticated
	}
	return string(s), nil
}
