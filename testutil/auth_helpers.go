package testutil

import (
	"strconv"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/middleware"
	"github.com/nearnect/nearnect-api/models"
)

// MockValidatedClaims creates ValidatedClaims as produced by EnsureValidToken
func MockValidatedClaims(user *models.User) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "nearnect-api",
			Subject: strconv.FormatUint(uint64(user.ID), 10),
		},
		CustomClaims: &middleware.CustomClaims{
			Role:  user.Role,
			Email: user.Email,
		},
	}
}

// SetMockAuthContext marks the context as authenticated as user
func SetMockAuthContext(c *gin.Context, user *models.User) {
	claims := MockValidatedClaims(user)
	c.Set(middleware.ContextUserID, user.ID)
	c.Set(middleware.ContextClaims, claims)
}

// MockAuth is a middleware authenticating every request as user
func MockAuth(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, user)
		c.Next()
	}
}
