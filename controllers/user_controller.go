package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
)

// UpdateProfileRequest lists the profile fields a user may change themselves.
// Anything else in the body is ignored.
type UpdateProfileRequest struct {
	Name              *string                   `json:"name"`
	Phone             *string                   `json:"phone"`
	Bio               *string                   `json:"bio"`
	AvatarURL         *string                   `json:"avatarUrl"`
	Skill             *string                   `json:"skill"`
	Price             *float64                  `json:"price" binding:"omitempty,gte=0"`
	Availability      *string                   `json:"availability"`
	Address           *string                   `json:"address"`
	City              *string                   `json:"city"`
	Pincode           *string                   `json:"pincode"`
	Latitude          *float64                  `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude         *float64                  `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	NotificationPrefs *models.NotificationPrefs `json:"notificationPrefs"`
}

// GetMyProfile handles GET /api/v1/auth/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, user)
}

// UpdateMyProfile handles PATCH /api/v1/auth/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Name cannot be empty")
			return
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Skill != nil {
		updates["skill"] = strings.TrimSpace(*req.Skill)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Availability != nil {
		updates["availability"] = *req.Availability
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Pincode != nil {
		updates["pincode"] = *req.Pincode
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if p := req.NotificationPrefs; p != nil {
		updates["notify_booking_updates"] = p.BookingUpdates
		updates["notify_reminders"] = p.Reminders
		updates["notify_new_messages"] = p.NewMessages
		updates["notify_marketing"] = p.Marketing
	}

	if len(updates) == 0 {
		respondOK(c, http.StatusOK, user)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to update user profile", err)
		return
	}
	if err := db.First(user, user.ID).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to load updated profile", err)
		return
	}

	respondOK(c, http.StatusOK, user)
}
