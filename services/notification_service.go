package services

import (
	"context"
	"fmt"

	"github.com/nearnect/nearnect-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	IconColorSuccess = "#00b894"
	IconColorDanger  = "#e17055"
)

// NotificationInput describes an in-app notification to create
type NotificationInput struct {
	UserID      uint
	Type        string
	Title       string
	Message     string
	Urgent      bool
	Icon        string
	IconColor   string
	RelatedID   *uint
	RelatedType string
	ActionURL   string
}

// Notify stores a notification for in.UserID. Failures are logged and
// returned; callers treat them as non-fatal.
func Notify(ctx context.Context, db *gorm.DB, in NotificationInput) (*models.Notification, error) {
	n := models.Notification{
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Urgent:    in.Urgent,
		Icon:      in.Icon,
		IconColor: in.IconColor,
		RelatedID: in.RelatedID,
		ActionURL: in.ActionURL,
	}
	if n.Icon == "" {
		n.Icon = models.DefaultNotificationIcon
	}
	if n.IconColor == "" {
		n.IconColor = models.DefaultNotificationIconColor
	}
	if in.RelatedType != "" {
		rt := in.RelatedType
		n.RelatedType = &rt
	}

	if err := db.WithContext(ctx).Create(&n).Error; err != nil {
		zap.L().Warn("Failed to create notification",
			zap.Uint("user_id", in.UserID),
			zap.String("type", in.Type),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &n, nil
}
