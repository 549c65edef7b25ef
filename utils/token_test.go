package utils

import (
	"testing"
	"time"

	"github.com/fitly/fashion-ai/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func withJWTSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.JWTSecret
	config.JWTSecret = secret
	t.Cleanup(func() { config.JWTSecret = prev })
}

func TestValidateTokenAcceptsSignedToken(t *testing.T) {
	withJWTSecret(t, "test-secret")

	raw := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	token, err := ValidateToken(raw)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims["user_id"])
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	withJWTSecret(t, "test-secret")

	raw := signTestToken(t, "some-other-secret", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := ValidateToken(raw)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpiredToken(t *testing.T) {
	withJWTSecret(t, "test-secret")

	raw := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := ValidateToken(raw)
	assert.Error(t, err)
}

func TestValidateTokenRequiresSecret(t *testing.T) {
	withJWTSecret(t, "")

	_, err := ValidateToken("anything")
	assert.Error(t, err)
}
