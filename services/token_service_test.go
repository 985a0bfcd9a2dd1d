package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiresIn: time.Hour,
		JWTIssuer:    "nearnect-api",
		JWTAudience:  "nearnect",
	}
}

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := &models.User{ID: 42, Email: "w@example.com", Role: models.RoleWorker}

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, models.RoleWorker, claims.Role)
	assert.Equal(t, "w@example.com", claims.Email)
	assert.Equal(t, "nearnect-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_ParseRejects(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := &models.User{ID: 1, Email: "c@example.com", Role: models.RoleCustomer}

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.JWTSecret = "other"
		token, err := NewTokenService(cfg).Issue(user)
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.JWTExpiresIn = -time.Minute
		token, err := NewTokenService(cfg).Issue(user)
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong audience", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.JWTAudience = "someone-else"
		token, err := NewTokenService(cfg).Issue(user)
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not.a.token")
		assert.Error(t, err)
	})
}
