package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationID(t *testing.T) {
	assert.Equal(t, ConversationID(3, 12), ConversationID(12, 3))
	// ids are compared as strings, so "12" sorts before "3"
	assert.Equal(t, "12_3", ConversationID(3, 12))
	assert.Equal(t, "5_5", ConversationID(5, 5))
}

func TestIsValidBookingStatus(t *testing.T) {
	for _, s := range BookingStatuses {
		assert.True(t, IsValidBookingStatus(s), s)
	}
	assert.False(t, IsValidBookingStatus("done"))
	assert.False(t, IsValidBookingStatus(""))
}

func TestIsValidRating(t *testing.T) {
	assert.False(t, IsValidRating(0))
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(6))
}

func TestIsValidNotificationType(t *testing.T) {
	assert.True(t, IsValidNotificationType(NotificationTypeReview))
	assert.False(t, IsValidNotificationType("promo"))
}

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod("upi"))
	assert.False(t, IsValidPaymentMethod("cheque"))
}

func TestBookingIsParticipant(t *testing.T) {
	b := Booking{CustomerID: 1, WorkerID: 2}
	assert.True(t, b.IsParticipant(1))
	assert.True(t, b.IsParticipant(2))
	assert.False(t, b.IsParticipant(3))
}

func TestBookingWithAssociations(t *testing.T) {
	db := setupTestDB(t)

	customer := User{Name: "C", Email: "c@example.com", Phone: "1", PasswordHash: "x"}
	worker := User{Name: "W", Email: "w@example.com", Phone: "2", PasswordHash: "x", Role: RoleWorker, Skill: "Electrician"}
	require.NoError(t, db.Create(&customer).Error)
	require.NoError(t, db.Create(&worker).Error)

	booking := Booking{
		CustomerID:    customer.ID,
		WorkerID:      worker.ID,
		Service:       "Wiring",
		ScheduledFor:  time.Now().Add(24 * time.Hour),
		Address:       "MG Road",
		CustomerName:  "C",
		CustomerPhone: "1",
		CustomerEmail: "c@example.com",
		Amount:        500,
	}
	require.NoError(t, db.Create(&booking).Error)

	var loaded Booking
	require.NoError(t, db.Preload("Customer").Preload("Worker").First(&loaded, booking.ID).Error)
	assert.Equal(t, BookingStatusPending, loaded.Status)
	assert.Equal(t, PaymentStatusPending, loaded.PaymentStatus)
	assert.Equal(t, "W", loaded.Worker.Name)
	assert.Equal(t, "C", loaded.Customer.Name)
}

func TestReviewBookingUnique(t *testing.T) {
	db := setupTestDB(t)

	bookingID := uint(1)
	require.NoError(t, db.Create(&Review{CustomerID: 1, WorkerID: 2, BookingID: &bookingID, Rating: 5}).Error)
	assert.Error(t, db.Create(&Review{CustomerID: 1, WorkerID: 2, BookingID: &bookingID, Rating: 4}).Error)

	// reviews without a booking are not constrained by the index
	require.NoError(t, db.Create(&Review{CustomerID: 1, WorkerID: 3, Rating: 4}).Error)
	require.NoError(t, db.Create(&Review{CustomerID: 4, WorkerID: 3, Rating: 3}).Error)

	var r Review
	require.NoError(t, db.Where("worker_id = ?", 3).First(&r).Error)
	assert.Equal(t, ReviewStatusActive, r.Status)
}

func TestNotificationDefaults(t *testing.T) {
	db := setupTestDB(t)

	n := Notification{UserID: 1, Type: NotificationTypeSystem, Title: "Hi", Message: "Welcome"}
	require.NoError(t, db.Create(&n).Error)

	var loaded Notification
	require.NoError(t, db.First(&loaded, n.ID).Error)
	assert.Equal(t, DefaultNotificationIcon, loaded.Icon)
	assert.Equal(t, DefaultNotificationIconColor, loaded.IconColor)
	assert.False(t, loaded.Read)
}
