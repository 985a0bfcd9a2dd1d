package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationTypeBooking = "booking"
	NotificationTypeMessage = "message"
	NotificationTypePayment = "payment"
	NotificationTypeSystem  = "system"
	NotificationTypeReview  = "review"
)

const (
	DefaultNotificationIcon      = "fas fa-bell"
	DefaultNotificationIconColor = "#6c5ce7"
)

// IsValidNotificationType reports whether t is a known notification type
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeBooking, NotificationTypeMessage, NotificationTypePayment,
		NotificationTypeSystem, NotificationTypeReview:
		return true
	}
	return false
}

// Notification is an in-app notice for a single user
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"userId"`
	Type        string         `gorm:"not null;index" json:"type"` // booking, message, payment, system, review
	Title       string         `gorm:"not null" json:"title"`
	Message     string         `gorm:"not null" json:"message"`
	Read        bool           `gorm:"column:is_read;default:false;index" json:"read"`
	Urgent      bool           `gorm:"default:false" json:"urgent"`
	Icon        string         `gorm:"default:'fas fa-bell'" json:"icon"`
	IconColor   string         `gorm:"default:'#6c5ce7'" json:"iconColor"`
	RelatedID   *uint          `json:"relatedId"`
	RelatedType *string        `json:"relatedType"`
	ActionURL   string         `json:"actionUrl"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
