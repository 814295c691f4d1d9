package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key-for-tests"

func signToken(t *testing.T, secret string, sub string, ttl time.Duration) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyAccessToken(t *testing.T) {
	verifier, err := NewAccessTokenVerifier(testSecret)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, "user-123", time.Hour)

		claims, err := verifier.VerifyAccessToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, "user-123", -time.Hour)

		_, err := verifier.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, "another-secret-entirely-here", "user-123", time.Hour)

		_, err := verifier.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.VerifyAccessToken(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, testSecret, "", time.Hour)

		_, err := verifier.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestNewAccessTokenVerifierRequiresSecret(t *testing.T) {
	_, err := NewAccessTokenVerifier("")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTokenInvalid))
}
