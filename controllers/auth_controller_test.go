package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/middleware"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/testutil"
	"github.com/nearnect/nearnect-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		GoEnv:        "test",
		JWTSecret:    "controller-test-secret",
		JWTExpiresIn: time.Hour,
		JWTIssuer:    "nearnect-api",
		JWTAudience:  "nearnect",
	}
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })
	return cfg
}

func authRouter(cfg *config.Config) *gin.Engine {
	router := setupTestRouter()
	router.POST("/auth/signup", Signup)
	router.POST("/auth/login", Login)
	protected := router.Group("/auth", middleware.EnsureValidToken(cfg))
	protected.GET("/me", GetMyProfile)
	protected.PATCH("/me", UpdateMyProfile)
	return router
}

func TestSignup(t *testing.T) {
	db := setupTestDB(t)
	emailSvc, mailer := setupMailer(t)
	router := authRouter(setupAuthConfig(t))

	tests := []struct {
		name           string
		body           gin.H
		expectedStatus int
		expectedCode   string
		expectedRole   string
	}{
		{
			name:           "customer by default",
			body:           gin.H{"name": "Asha", "email": "Asha@Example.com", "phone": "9876500001", "password": "secret1", "skill": "Plumber"},
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleCustomer,
		},
		{
			name:           "worker with profile",
			body:           gin.H{"name": "Ravi", "email": "ravi@example.com", "phone": "9876500002", "password": "secret1", "role": "worker", "skill": "Electrician", "price": 400},
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleWorker,
		},
		{
			name:           "admin role is never granted",
			body:           gin.H{"name": "Eve", "email": "eve@example.com", "phone": "9876500003", "password": "secret1", "role": "admin"},
			expectedStatus: http.StatusCreated,
			expectedRole:   models.RoleCustomer,
		},
		{
			name:           "duplicate email differs only in case",
			body:           gin.H{"name": "Asha 2", "email": "ASHA@example.com", "phone": "9876500004", "password": "secret1"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "USER_EXISTS",
		},
		{
			name:           "missing password",
			body:           gin.H{"name": "No Pass", "email": "nopass@example.com", "phone": "9876500005"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "invalid email",
			body:           gin.H{"name": "Bad", "email": "not-an-email", "phone": "9876500006", "password": "secret1"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/auth/signup", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeResponse(t, w).Error.Code)
				return
			}

			var user models.User
			decodeData(t, w, &user)
			assert.Equal(t, tt.expectedRole, user.Role)
			assert.NotContains(t, w.Body.String(), "password")
		})
	}

	var asha models.User
	require.NoError(t, db.Where("email = ?", "asha@example.com").First(&asha).Error)
	assert.Empty(t, asha.Skill, "worker fields are dropped for customers")
	assert.True(t, utils.ComparePassword(asha.PasswordHash, "secret1"))
	assert.True(t, asha.NotificationPrefs.BookingUpdates)

	var ravi models.User
	require.NoError(t, db.Where("email = ?", "ravi@example.com").First(&ravi).Error)
	assert.Equal(t, "Electrician", ravi.Skill)
	assert.Equal(t, 400.0, ravi.Price)

	emailSvc.Wait()
	assert.Len(t, mailer.Sent(), 3)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	router := authRouter(setupAuthConfig(t))

	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)
	user := testutil.CreateUser(t, db, models.User{Email: "worker@example.com", PasswordHash: hash, Role: models.RoleWorker})
	testutil.CreateUser(t, db, models.User{Email: "blocked@example.com", PasswordHash: hash, IsBlocked: true})

	t.Run("success and token works on /me", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "Worker@example.com", "password": "correct-horse"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var data struct {
			Token string `json:"token"`
			Role  string `json:"role"`
		}
		decodeData(t, w, &data)
		assert.Equal(t, models.RoleWorker, data.Role)
		require.NotEmpty(t, data.Token)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+data.Token)
		me := httptest.NewRecorder()
		router.ServeHTTP(me, req)
		require.Equal(t, http.StatusOK, me.Code, me.Body.String())

		var profile models.User
		decodeData(t, me, &profile)
		assert.Equal(t, user.ID, profile.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "worker@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "ghost@example.com", "password": "correct-horse"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeResponse(t, w).Error.Code)
	})

	t.Run("blocked account", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "blocked@example.com", "password": "correct-horse"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "worker@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("me without token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetMyProfile_UserNotFound(t *testing.T) {
	setupTestDB(t)
	router := authedRouter(&models.User{ID: 4242, Role: models.RoleCustomer})
	router.GET("/auth/me", GetMyProfile)

	w := doJSON(t, router, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeResponse(t, w).Error.Code)
}

func TestUpdateMyProfile(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateWorker(t, db, "Plumber", 200)
	router := authedRouter(user)
	router.PATCH("/auth/me", UpdateMyProfile)

	t.Run("allow-listed fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/auth/me", gin.H{
			"name":              "Ravi Kumar",
			"price":             350,
			"latitude":          12.97,
			"longitude":         77.59,
			"role":              "admin",
			"email":             "hijack@example.com",
			"notificationPrefs": gin.H{"bookingUpdates": false, "reminders": true, "newMessages": false, "marketing": true},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated models.User
		decodeData(t, w, &updated)
		assert.Equal(t, "Ravi Kumar", updated.Name)
		assert.Equal(t, 350.0, updated.Price)
		assert.Equal(t, 12.97, *updated.Latitude)
		assert.Equal(t, models.RoleWorker, updated.Role)
		assert.Equal(t, user.Email, updated.Email)
		assert.False(t, updated.NotificationPrefs.BookingUpdates)
		assert.False(t, updated.NotificationPrefs.NewMessages)
		assert.True(t, updated.NotificationPrefs.Marketing)
	})

	t.Run("empty name", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/auth/me", gin.H{"name": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/auth/me", gin.H{"latitude": 123})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty update", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/auth/me", gin.H{})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
