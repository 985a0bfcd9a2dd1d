package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReviewStatusActive  = "active"
	ReviewStatusHidden  = "hidden"
	ReviewStatusDeleted = "deleted"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a worker, optionally tied to a completed booking
type Review struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CustomerID       uint           `gorm:"not null;index:idx_reviews_customer_worker" json:"customerId"`
	Customer         *User          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	WorkerID         uint           `gorm:"not null;index:idx_reviews_customer_worker;index:idx_reviews_worker_status" json:"workerId"`
	Worker           *User          `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	BookingID        *uint          `gorm:"uniqueIndex" json:"bookingId"` // one review per booking
	Booking          *Booking       `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Rating           int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment          string         `json:"comment"`
	ServiceQuality   *int           `json:"serviceQuality"`
	Punctuality      *int           `json:"punctuality"`
	Professionalism  *int           `json:"professionalism"`
	Status           string         `gorm:"not null;default:'active';index:idx_reviews_worker_status" json:"status"` // active, hidden, deleted
	WorkerResponse   string         `json:"workerResponse"`
	WorkerResponseAt *time.Time     `json:"workerResponseAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// IsValidRating reports whether r is within the 1..5 star range
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
