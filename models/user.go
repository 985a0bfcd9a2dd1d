package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
	RoleAdmin    = "admin"
)

// NotificationPrefs controls which notification emails a user wants
type NotificationPrefs struct {
	BookingUpdates bool `gorm:"default:true" json:"bookingUpdates"`
	Reminders      bool `gorm:"default:true" json:"reminders"`
	NewMessages    bool `gorm:"default:true" json:"newMessages"`
	Marketing      bool `gorm:"default:false" json:"marketing"`
}

// DefaultNotificationPrefs mirrors the column defaults for rows created from Go
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{BookingUpdates: true, Reminders: true, NewMessages: true}
}

// User represents a customer, a worker (service provider) or an admin.
// Skill, price, availability and location are only meaningful for workers.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null" json:"name"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"` // always stored lower-case
	Phone        string  `gorm:"not null" json:"phone"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         string  `gorm:"not null;default:'customer';index" json:"role"` // customer, worker, admin
	AvatarURL    string  `json:"avatarUrl"`
	Bio          string  `json:"bio"`
	Skill        string  `gorm:"index" json:"skill"`
	Price        float64 `gorm:"default:0" json:"price"`
	Availability string  `json:"availability"`

	// Latitude/Longitude are nil until the worker shares a location.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Pincode   string   `json:"pincode"`

	NotificationPrefs NotificationPrefs `gorm:"embedded;embeddedPrefix:notify_" json:"notificationPrefs"`

	IsVerified bool           `gorm:"default:false" json:"isVerified"`
	IsBlocked  bool           `gorm:"default:false" json:"isBlocked"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsWorker reports whether the user offers services
func (u *User) IsWorker() bool {
	return u.Role == RoleWorker
}

// HasLocation reports whether both coordinates are present
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// UserSummary is the trimmed user shape embedded in other resources
type UserSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role,omitempty"`
	Skill     string `json:"skill,omitempty"`
}

// Summary returns the public subset of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Skill:     u.Skill,
	}
}
