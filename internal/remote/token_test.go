package remote

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "device-1",
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	s, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestRenewingTokenSource_CachesFreshToken(t *testing.T) {
	fresh := signedToken(t, time.Hour)
	calls := 0
	src := NewRenewingTokenSource(func(ctx context.Context) (string, error) {
		calls++
		return fresh, nil
	}, time.Minute)

	for i := 0; i < 3; i++ {
		tok, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fresh, tok)
	}
	assert.Equal(t, 1, calls)
}

func TestRenewingTokenSource_RenewsExpiringToken(t *testing.T) {
	expiring := signedToken(t, 10*time.Second)
	fresh := signedToken(t, time.Hour)

	tokens := []string{expiring, fresh}
	calls := 0
	src := NewRenewingTokenSource(func(ctx context.Context) (string, error) {
		tok := tokens[calls]
		calls++
		return tok, nil
	}, time.Minute)

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expiring, tok)

	// the cached token is within the leeway window, so the next call renews
	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, tok)
	assert.Equal(t, 2, calls)
}

func TestRenewingTokenSource_OpaqueTokenNeverExpiresProactively(t *testing.T) {
	calls := 0
	src := NewRenewingTokenSource(func(ctx context.Context) (string, error) {
		calls++
		return "opaque-token", nil
	}, time.Minute)

	for i := 0; i < 2; i++ {
		tok, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "opaque-token", tok)
	}
	assert.Equal(t, 1, calls)

	src.Invalidate()
	_, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
