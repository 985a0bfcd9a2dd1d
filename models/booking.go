package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in-progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// BookingStatuses is the allow-list accepted when updating a booking
var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// IsValidBookingStatus reports whether status is one of BookingStatuses
func IsValidBookingStatus(status string) bool {
	for _, s := range BookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Booking is a customer's request for a worker's service at a given time
type Booking struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CustomerID         uint           `gorm:"not null;index" json:"customerId"`
	Customer           User           `gorm:"foreignKey:CustomerID" json:"customer"`
	WorkerID           uint           `gorm:"not null;index" json:"workerId"`
	Worker             User           `gorm:"foreignKey:WorkerID" json:"worker"`
	Service            string         `gorm:"not null" json:"service"`
	ScheduledFor       time.Time      `gorm:"not null;index" json:"scheduledFor"`
	Address            string         `gorm:"not null" json:"address"`
	Instructions       string         `json:"instructions"`
	CustomerName       string         `gorm:"not null" json:"customerName"`
	CustomerPhone      string         `gorm:"not null" json:"customerPhone"`
	CustomerEmail      string         `gorm:"not null" json:"customerEmail"`
	Amount             float64        `gorm:"not null;default:0;check:amount >= 0" json:"amount"`
	Status             string         `gorm:"not null;default:'pending';index" json:"status"`              // pending, confirmed, in-progress, completed, cancelled
	PaymentStatus      string         `gorm:"not null;default:'pending';index" json:"paymentStatus"`       // pending, paid, refunded
	PaymentID          *uint          `json:"paymentId"`                                                   // set once a payment is verified
	EstimatedDuration  string         `json:"estimatedDuration"`
	CompletedAt        *time.Time     `json:"completedAt"`
	CancelledAt        *time.Time     `json:"cancelledAt"`
	CancellationReason string         `json:"cancellationReason"`
	CreatedAt          time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsParticipant reports whether the user is the booking's customer or worker
func (b *Booking) IsParticipant(userID uint) bool {
	return b.CustomerID == userID || b.WorkerID == userID
}
