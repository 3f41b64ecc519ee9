package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclens-ai/doclens/internal/domain"
)

var testCfg = JWTConfig{
	Secret:    "test-secret",
	Issuer:    "doclens-test",
	ExpiresIn: time.Hour,
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "u1",
		Email: "alex@example.com",
		Name:  "Alex",
		Role:  "user",
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), testCfg)
	require.NoError(t, err)

	claims, err := validateJWT(token, testCfg.Secret, testCfg.Issuer)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "alex@example.com", claims.Email)
	assert.Equal(t, "Alex", claims.Name)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, testCfg.Issuer, claims.Issuer)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	token, err := GenerateJWT(testUser(), testCfg)
	require.NoError(t, err)

	_, err = validateJWT(token, "other-secret", testCfg.Issuer)
	assert.Error(t, err)
}

func TestJWT_WrongIssuerRejected(t *testing.T) {
	token, err := GenerateJWT(testUser(), testCfg)
	require.NoError(t, err)

	_, err = validateJWT(token, testCfg.Secret, "other-issuer")
	assert.Error(t, err)
}

func TestJWT_ExpiredRejected(t *testing.T) {
	cfg := testCfg
	cfg.ExpiresIn = -time.Minute

	token, err := GenerateJWT(testUser(), cfg)
	require.NoError(t, err)

	_, err = validateJWT(token, cfg.Secret, cfg.Issuer)
	assert.ErrorContains(t, err, "expired")
}

func TestJWT_MalformedRejected(t *testing.T) {
	_, err := validateJWT("not.a.token.at.all", testCfg.Secret, testCfg.Issuer)
	assert.Error(t, err)

	_, err = validateJWT("onlyonepart", testCfg.Secret, testCfg.Issuer)
	assert.Error(t, err)
}
