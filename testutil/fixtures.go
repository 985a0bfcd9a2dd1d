package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nearnect/nearnect-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// Uint returns a pointer to v
func Uint(v uint) *uint { return &v }

// CreateUser inserts a user with unique email; fields set on u are kept
func CreateUser(t *testing.T, db *gorm.DB, u models.User) *models.User {
	t.Helper()

	n := next()
	if u.Name == "" {
		u.Name = fmt.Sprintf("User %d", n)
	}
	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.com", n)
	}
	if u.Phone == "" {
		u.Phone = fmt.Sprintf("98765%05d", n)
	}
	if u.PasswordHash == "" {
		u.PasswordHash = "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv"
	}
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	if u.NotificationPrefs == (models.NotificationPrefs{}) {
		u.NotificationPrefs = models.DefaultNotificationPrefs()
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// CreateCustomer inserts a customer
func CreateCustomer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateUser(t, db, models.User{Role: models.RoleCustomer})
}

// CreateWorker inserts a worker offering skill at price
func CreateWorker(t *testing.T, db *gorm.DB, skill string, price float64) *models.User {
	t.Helper()
	return CreateUser(t, db, models.User{Role: models.RoleWorker, Skill: skill, Price: price})
}

// CreateWorkerAt inserts a located worker
func CreateWorkerAt(t *testing.T, db *gorm.DB, skill string, lat, lon float64) *models.User {
	t.Helper()
	return CreateUser(t, db, models.User{
		Role:      models.RoleWorker,
		Skill:     skill,
		Latitude:  Float(lat),
		Longitude: Float(lon),
	})
}

// CreateAdmin inserts an admin
func CreateAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateUser(t, db, models.User{Role: models.RoleAdmin})
}

// CreateBooking inserts a booking between customer and worker with the given status
func CreateBooking(t *testing.T, db *gorm.DB, customer, worker *models.User, status string) *models.Booking {
	t.Helper()
	if status == "" {
		status = models.BookingStatusPending
	}
	b := models.Booking{
		CustomerID:    customer.ID,
		WorkerID:      worker.ID,
		Service:       worker.Skill,
		ScheduledFor:  time.Now().Add(48 * time.Hour),
		Address:       "221B Baker Street",
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerEmail: customer.Email,
		Amount:        500,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

// CreateReview inserts an active review of worker by customer
func CreateReview(t *testing.T, db *gorm.DB, customer, worker *models.User, rating int) *models.Review {
	t.Helper()
	r := models.Review{
		CustomerID: customer.ID,
		WorkerID:   worker.ID,
		Rating:     rating,
		Status:     models.ReviewStatusActive,
	}
	require.NoError(t, db.Create(&r).Error)
	return &r
}
