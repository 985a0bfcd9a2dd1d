package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/utils"
	"go.uber.org/zap"
)

// SignupRequest represents the request body for POST /auth/signup
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`

	// worker only
	Skill        string   `json:"skill"`
	Bio          string   `json:"bio"`
	Price        float64  `json:"price" binding:"gte=0"`
	Availability string   `json:"availability"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Pincode      string   `json:"pincode"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

// LoginRequest represents the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /api/v1/auth/signup - registers a customer or worker
func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	db := config.GetDB().WithContext(c.Request.Context())

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to check existing user", err)
		return
	}
	if existing > 0 {
		respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondServerError(c, "INTERNAL_ERROR", "Failed to hash password", err)
		return
	}

	user := models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		Phone:             strings.TrimSpace(req.Phone),
		PasswordHash:      hash,
		Role:              models.RoleCustomer,
		Address:           req.Address,
		City:              req.City,
		Pincode:           req.Pincode,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		NotificationPrefs: models.DefaultNotificationPrefs(),
	}
	// admins are never self-registered
	if req.Role == models.RoleWorker {
		user.Role = models.RoleWorker
		user.Skill = strings.TrimSpace(req.Skill)
		user.Bio = req.Bio
		user.Price = req.Price
		user.Availability = req.Availability
	}

	if err := db.Create(&user).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this email already exists")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to create user", err)
		return
	}

	zap.L().Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	services.GetEmailService().SendWelcome(user.Email, user.Name)

	respondOK(c, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login - exchanges credentials for a token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var user models.User
	err := config.GetDB().WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil && !isNotFound(err) {
		respondServerError(c, "DATABASE_ERROR", "Failed to load user", err)
		return
	}
	if err != nil || !utils.ComparePassword(user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if user.IsBlocked {
		respondError(c, http.StatusForbidden, "ACCOUNT_BLOCKED", "This account has been blocked")
		return
	}

	token, err := services.NewTokenService(config.GetConfig()).Issue(&user)
	if err != nil {
		respondServerError(c, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"token": token,
		"role":  user.Role,
		"user":  user.Summary(),
	})
}
