package remote

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for storage requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed, non-expiring token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// RenewFunc obtains a fresh token from the account service.
type RenewFunc func(ctx context.Context) (string, error)

// RenewingTokenSource caches a token and renews it before expiry. Expiry is
// read from the token's exp claim without signature verification; the
// client is not the token's audience, the storage server is. Tokens that
// are not JWTs are cached until a request fails.
type RenewingTokenSource struct {
	renew  RenewFunc
	leeway time.Duration

	mu    sync.Mutex
	token string
}

func NewRenewingTokenSource(renew RenewFunc, leeway time.Duration) *RenewingTokenSource {
	return &RenewingTokenSource{renew: renew, leeway: leeway}
}

func (s *RenewingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && !expiringSoon(s.token, s.leeway) {
		return s.token, nil
	}
	token, err := s.renew(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	return token, nil
}

// Invalidate drops the cached token so the next request renews it.
func (s *RenewingTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func expiringSoon(token string, leeway time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < leeway
}
