package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/utils"
)

const defaultNotificationLimit = 50

// CreateNotificationRequest represents the request body for POST /notifications
type CreateNotificationRequest struct {
	Type        string `json:"type" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Message     string `json:"message" binding:"required"`
	Urgent      bool   `json:"urgent"`
	Icon        string `json:"icon"`
	IconColor   string `json:"iconColor"`
	RelatedID   *uint  `json:"relatedId"`
	RelatedType string `json:"relatedType"`
	ActionURL   string `json:"actionUrl"`
}

// TypeSummary counts notifications of one type
type TypeSummary struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

// NotificationSummary is the body of GET /notifications/stats/summary
type NotificationSummary struct {
	Total  int64                   `json:"total"`
	Unread int64                   `json:"unread"`
	Urgent int64                   `json:"urgent"`
	ByType map[string]*TypeSummary `json:"byType"`
}

// loadOwnNotification fetches a notification and checks it belongs to userID
func loadOwnNotification(c *gin.Context, userID uint) (*models.Notification, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var n models.Notification
	if err := config.GetDB().WithContext(c.Request.Context()).First(&n, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
			return nil, false
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load notification", err)
		return nil, false
	}
	if n.UserID != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this notification")
		return nil, false
	}
	return &n, true
}

// ListNotifications handles GET /api/v1/notifications?type&read&limit
func ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit, ok := utils.ParsePositiveInt(c.Query("limit"), defaultNotificationLimit)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := config.GetDB().WithContext(c.Request.Context()).Where("user_id = ?", user.ID)
	if t := c.Query("type"); t != "" {
		if !models.IsValidNotificationType(t) {
			respondError(c, http.StatusBadRequest, "INVALID_TYPE", "Invalid notification type")
			return
		}
		query = query.Where("type = ?", t)
	}
	switch c.Query("read") {
	case "":
	case "true":
		query = query.Where("is_read = ?", true)
	case "false":
		query = query.Where("is_read = ?", false)
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "read must be true or false")
		return
	}

	notifications := []models.Notification{}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch notifications", err)
		return
	}

	var unread int64
	if err := config.GetDB().WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to count notifications", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// CreateNotification handles POST /api/v1/notifications - a notification for the caller
func CreateNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !models.IsValidNotificationType(req.Type) {
		respondError(c, http.StatusBadRequest, "INVALID_TYPE", "Invalid notification type")
		return
	}

	n, err := services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      user.ID,
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Message:     strings.TrimSpace(req.Message),
		Urgent:      req.Urgent,
		Icon:        req.Icon,
		IconColor:   req.IconColor,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
		ActionURL:   req.ActionURL,
	})
	if err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to create notification", err)
		return
	}

	respondOK(c, http.StatusCreated, n)
}

// GetNotification handles GET /api/v1/notifications/:id
func GetNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	n, ok := loadOwnNotification(c, user.ID)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, n)
}

// MarkNotificationRead handles PATCH /api/v1/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	n, ok := loadOwnNotification(c, user.ID)
	if !ok {
		return
	}

	if !n.Read {
		if err := config.GetDB().WithContext(c.Request.Context()).Model(n).Update("is_read", true).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to update notification", err)
			return
		}
		n.Read = true
	}

	respondOK(c, http.StatusOK, n)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/mark-all-read
func MarkAllNotificationsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	result := config.GetDB().WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true)
	if result.Error != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to update notifications", result.Error)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"updatedCount": result.RowsAffected})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func DeleteNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	n, ok := loadOwnNotification(c, user.ID)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Delete(n).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to delete notification", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification deleted",
	})
}

// NotificationStats handles GET /api/v1/notifications/stats/summary.
// Urgent counts unread urgent notifications only.
func NotificationStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var rows []struct {
		Type   string
		IsRead bool
		Urgent bool
		Count  int64
	}
	if err := config.GetDB().WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Select("type, is_read, urgent, COUNT(*) AS count").
		Where("user_id = ?", user.ID).
		Group("type, is_read, urgent").
		Scan(&rows).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to summarise notifications", err)
		return
	}

	summary := NotificationSummary{ByType: make(map[string]*TypeSummary)}
	for _, r := range rows {
		t, ok := summary.ByType[r.Type]
		if !ok {
			t = &TypeSummary{}
			summary.ByType[r.Type] = t
		}
		summary.Total += r.Count
		t.Total += r.Count
		if !r.IsRead {
			summary.Unread += r.Count
			t.Unread += r.Count
			if r.Urgent {
				summary.Urgent += r.Count
			}
		}
	}

	respondOK(c, http.StatusOK, summary)
}
