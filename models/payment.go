package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
	PaymentCancelled  = "cancelled"
)

const GatewayRazorpay = "razorpay"

// Payment tracks the gateway payment for a booking (at most one per booking)
type Payment struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	BookingID            uint           `gorm:"uniqueIndex;not null" json:"bookingId"`
	Booking              *Booking       `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	CustomerID           uint           `gorm:"not null;index" json:"customerId"`
	Customer             *User          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	WorkerID             uint           `gorm:"not null;index" json:"workerId"`
	Worker               *User          `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Amount               float64        `gorm:"not null;check:amount >= 0" json:"amount"`
	Currency             string         `gorm:"not null;default:'INR'" json:"currency"`
	PaymentMethod        string         `gorm:"not null" json:"paymentMethod"`                  // card, upi, netbanking, wallet, cash
	Status               string         `gorm:"not null;default:'pending';index" json:"status"` // pending, processing, completed, failed, refunded, cancelled
	Gateway              string         `gorm:"not null;default:'razorpay'" json:"gateway"`
	GatewayTransactionID string         `gorm:"index" json:"gatewayTransactionId"`
	GatewayOrderID       string         `json:"gatewayOrderId"`
	GatewayPaymentID     string         `json:"gatewayPaymentId"`
	PaidAt               *time.Time     `json:"paidAt"`
	FailedAt             *time.Time     `json:"failedAt"`
	FailureReason        string         `json:"failureReason"`
	RefundAmount         float64        `gorm:"default:0" json:"refundAmount"`
	RefundedAt           *time.Time     `json:"refundedAt"`
	RefundReason         string         `json:"refundReason"`
	GatewayRefundID      string         `json:"gatewayRefundId"`
	Receipt              string         `json:"receipt"`
	CreatedAt            time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// IsValidPaymentMethod reports whether m is an accepted payment method
func IsValidPaymentMethod(m string) bool {
	switch m {
	case "card", "upi", "netbanking", "wallet", "cash":
		return true
	}
	return false
}
