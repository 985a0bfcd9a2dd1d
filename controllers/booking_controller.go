package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"gorm.io/gorm"
)

const (
	bookingListLimit        = 100
	defaultCancelReason     = "Cancelled by customer"
	workerBookingsActionURL = "/worker-dashboard.html#bookings"
	customerBookingsURL     = "/customer-dashboard.html#bookings"
)

// CreateBookingRequest represents the request body for creating a booking.
// providerId is accepted as an alias of workerId.
type CreateBookingRequest struct {
	WorkerID          uint       `json:"workerId"`
	ProviderID        uint       `json:"providerId"`
	Service           string     `json:"service"`
	ScheduledFor      *time.Time `json:"scheduledFor"`
	Address           string     `json:"address"`
	Instructions      string     `json:"instructions"`
	CustomerName      string     `json:"customerName"`
	CustomerPhone     string     `json:"customerPhone"`
	CustomerEmail     string     `json:"customerEmail"`
	Amount            float64    `json:"amount" binding:"gte=0"`
	EstimatedDuration string     `json:"estimatedDuration"`
}

// UpdateBookingRequest represents the request body for a participant status change
type UpdateBookingRequest struct {
	Status             string `json:"status" binding:"required"`
	CancellationReason string `json:"cancellationReason"`
}

// CancelBookingRequest is the optional body of DELETE /bookings/:id
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Customer").Preload("Worker")
}

// loadBooking fetches a booking with both participants, writing 404/500 itself
func loadBooking(c *gin.Context, id uint) (*models.Booking, bool) {
	var booking models.Booking
	if err := preloadParticipants(config.GetDB().WithContext(c.Request.Context())).First(&booking, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
			return nil, false
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load booking", err)
		return nil, false
	}
	return &booking, true
}

// CreateBooking handles POST /api/v1/bookings - books a worker
func CreateBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	workerID := req.WorkerID
	if workerID == 0 {
		workerID = req.ProviderID
	}
	req.Service = strings.TrimSpace(req.Service)
	req.Address = strings.TrimSpace(req.Address)
	if workerID == 0 || req.Service == "" || req.ScheduledFor == nil || req.Address == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "workerId, service, scheduledFor and address are required")
		return
	}
	if !req.ScheduledFor.After(time.Now()) {
		respondError(c, http.StatusBadRequest, "INVALID_SCHEDULE", "Scheduled time must be in the future")
		return
	}
	if workerID == user.ID {
		respondError(c, http.StatusBadRequest, "SELF_BOOKING", "You cannot book yourself")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var worker models.User
	if err := db.First(&worker, workerID).Error; err != nil || !worker.IsWorker() {
		if err != nil && !isNotFound(err) {
			respondServerError(c, "DATABASE_ERROR", "Failed to load worker", err)
			return
		}
		respondError(c, http.StatusNotFound, "WORKER_NOT_FOUND", "Worker not found")
		return
	}

	booking := models.Booking{
		CustomerID:        user.ID,
		WorkerID:          worker.ID,
		Service:           req.Service,
		ScheduledFor:      *req.ScheduledFor,
		Address:           req.Address,
		Instructions:      req.Instructions,
		CustomerName:      firstNonEmpty(req.CustomerName, user.Name),
		CustomerPhone:     firstNonEmpty(req.CustomerPhone, user.Phone),
		CustomerEmail:     firstNonEmpty(req.CustomerEmail, user.Email),
		Amount:            req.Amount,
		Status:            models.BookingStatusPending,
		PaymentStatus:     models.PaymentStatusPending,
		EstimatedDuration: req.EstimatedDuration,
	}

	if err := db.Create(&booking).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to create booking", err)
		return
	}

	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      worker.ID,
		Type:        models.NotificationTypeBooking,
		Title:       "New Booking Request",
		Message:     fmt.Sprintf("%s requested %s on %s", booking.CustomerName, booking.Service, booking.ScheduledFor.Format("Jan 2, 2006 3:04 PM")),
		Urgent:      true,
		Icon:        "fas fa-calendar-check",
		IconColor:   services.IconColorSuccess,
		RelatedID:   &booking.ID,
		RelatedType: "booking",
		ActionURL:   workerBookingsActionURL,
	})

	booking.Customer = *user
	booking.Worker = worker
	services.GetEmailService().SendBookingConfirmation(booking.CustomerEmail, &booking)

	respondOK(c, http.StatusCreated, booking)
}

// ListBookings handles GET /api/v1/bookings - the caller's bookings, newest first
func ListBookings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := preloadParticipants(config.GetDB().WithContext(c.Request.Context()))
	if user.IsWorker() {
		query = query.Where("worker_id = ?", user.ID)
	} else {
		query = query.Where("customer_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		if !models.IsValidBookingStatus(status) {
			respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid booking status")
			return
		}
		query = query.Where("status = ?", status)
	}

	bookings := []models.Booking{}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(bookingListLimit).Find(&bookings).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch bookings", err)
		return
	}

	respondOK(c, http.StatusOK, bookings)
}

// GetBooking handles GET /api/v1/bookings/:id
func GetBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, ok := loadBooking(c, id)
	if !ok {
		return
	}
	if !booking.IsParticipant(user.ID) && user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this booking")
		return
	}

	respondOK(c, http.StatusOK, booking)
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id - participants move a booking through its statuses
func UpdateBookingStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !models.IsValidBookingStatus(req.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid booking status")
		return
	}

	booking, ok := loadBooking(c, id)
	if !ok {
		return
	}
	if !booking.IsParticipant(user.ID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to update this booking")
		return
	}

	if err := applyBookingStatus(c.Request.Context(), config.GetDB(), booking, req.Status, req.CancellationReason); err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to update booking", err)
		return
	}

	recipient := booking.WorkerID
	actionURL := workerBookingsActionURL
	if user.ID == booking.WorkerID {
		recipient = booking.CustomerID
		actionURL = customerBookingsURL
	}
	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      recipient,
		Type:        models.NotificationTypeBooking,
		Title:       "Booking " + capitalize(req.Status),
		Message:     fmt.Sprintf("Your booking for %s is now %s", booking.Service, req.Status),
		Urgent:      req.Status == models.BookingStatusCancelled,
		RelatedID:   &booking.ID,
		RelatedType: "booking",
		ActionURL:   actionURL,
	})

	if req.Status == models.BookingStatusConfirmed {
		services.GetEmailService().SendBookingConfirmation(booking.CustomerEmail, booking)
	}

	respondOK(c, http.StatusOK, booking)
}

// CancelBooking handles DELETE /api/v1/bookings/:id - the customer cancels their booking
func CancelBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// the body is optional
	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	booking, ok := loadBooking(c, id)
	if !ok {
		return
	}
	if booking.CustomerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the customer can cancel this booking")
		return
	}
	if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Booking can no longer be cancelled")
		return
	}

	reason := firstNonEmpty(strings.TrimSpace(req.Reason), defaultCancelReason)
	if err := applyBookingStatus(c.Request.Context(), config.GetDB(), booking, models.BookingStatusCancelled, reason); err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to cancel booking", err)
		return
	}

	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      booking.WorkerID,
		Type:        models.NotificationTypeBooking,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("%s cancelled the booking for %s: %s", booking.CustomerName, booking.Service, reason),
		Urgent:      true,
		IconColor:   services.IconColorDanger,
		RelatedID:   &booking.ID,
		RelatedType: "booking",
		ActionURL:   workerBookingsActionURL,
	})

	respondOK(c, http.StatusOK, booking)
}

// ListWorkerBookings handles GET /api/v1/bookings/worker/:workerId - that worker or an admin only
func ListWorkerBookings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	workerID, ok := paramID(c, "workerId")
	if !ok {
		return
	}
	if user.ID != workerID && user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view these bookings")
		return
	}

	bookings := []models.Booking{}
	if err := preloadParticipants(config.GetDB().WithContext(c.Request.Context())).
		Where("worker_id = ?", workerID).
		Order("created_at DESC").Order("id DESC").
		Limit(bookingListLimit).
		Find(&bookings).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch bookings", err)
		return
	}

	respondOK(c, http.StatusOK, bookings)
}

// applyBookingStatus persists a status change together with its timestamps
func applyBookingStatus(ctx context.Context, db *gorm.DB, booking *models.Booking, status, reason string) error {
	now := time.Now()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.BookingStatusCompleted:
		updates["completed_at"] = now
		booking.CompletedAt = &now
	case models.BookingStatusCancelled:
		updates["cancelled_at"] = now
		updates["cancellation_reason"] = reason
		booking.CancelledAt = &now
		booking.CancellationReason = reason
	}

	if err := db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update booking %d: %w", booking.ID, err)
	}
	booking.Status = status
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
