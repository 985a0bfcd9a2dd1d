package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultCurrency      = "INR"
	defaultPaymentMethod = "upi"
	defaultFailureReason = "Payment failed"
	paymentIcon          = "fas fa-credit-card"
	customerPaymentsURL  = "/customer-dashboard.html#payments"
	workerPaymentsURL    = "/worker-dashboard.html#bookings"
)

// CreatePaymentOrderRequest represents the request body for starting a checkout
type CreatePaymentOrderRequest struct {
	BookingID     uint    `json:"bookingId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
}

// VerifyPaymentRequest carries the checkout callback fields
type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	BookingID uint   `json:"bookingId"`
}

// PaymentFailedRequest carries the checkout failure callback
type PaymentFailedRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	BookingID uint   `json:"bookingId"`
	Error     struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreatePaymentOrder handles POST /api/v1/payments/create-order
func CreatePaymentOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.BookingID == 0 || req.Amount <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Booking ID and amount are required")
		return
	}
	currency := strings.ToUpper(firstNonEmpty(req.Currency, defaultCurrency))
	method := firstNonEmpty(req.PaymentMethod, defaultPaymentMethod)
	if !models.IsValidPaymentMethod(method) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment method")
		return
	}

	ctx := c.Request.Context()
	db := config.GetDB().WithContext(ctx)

	var booking models.Booking
	if err := db.First(&booking, req.BookingID).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load booking", err)
		return
	}
	if booking.CustomerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only pay for your own bookings")
		return
	}

	var payment models.Payment
	err := db.Where("booking_id = ?", booking.ID).First(&payment).Error
	if err != nil && !isNotFound(err) {
		respondServerError(c, "DATABASE_ERROR", "Failed to load payment", err)
		return
	}
	exists := err == nil
	if exists && payment.Status == models.PaymentCompleted {
		respondError(c, http.StatusBadRequest, "PAYMENT_ALREADY_COMPLETED", "Payment already completed for this booking")
		return
	}

	gateway := services.GetPaymentGateway()
	if gateway == nil {
		respondError(c, http.StatusServiceUnavailable, "PAYMENT_GATEWAY_UNAVAILABLE", "Payment gateway is not configured")
		return
	}

	receipt := fmt.Sprintf("booking_%d_%d", booking.ID, time.Now().UnixMilli())
	order, err := gateway.CreateOrder(ctx, services.CreateOrderRequest{
		Amount:   services.ToMinorUnits(req.Amount),
		Currency: currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"bookingId":  strconv.FormatUint(uint64(booking.ID), 10),
			"customerId": strconv.FormatUint(uint64(booking.CustomerID), 10),
			"workerId":   strconv.FormatUint(uint64(booking.WorkerID), 10),
		},
	})
	if err != nil {
		if errors.Is(err, services.ErrGatewayNotConfigured) {
			respondError(c, http.StatusServiceUnavailable, "PAYMENT_GATEWAY_UNAVAILABLE", "Payment gateway is not configured")
			return
		}
		zap.L().Error("Failed to create gateway order", zap.Uint("booking_id", booking.ID), zap.Error(err))
		respondError(c, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "Failed to create payment order")
		return
	}

	payment.BookingID = booking.ID
	payment.CustomerID = booking.CustomerID
	payment.WorkerID = booking.WorkerID
	payment.Amount = req.Amount
	payment.Currency = currency
	payment.PaymentMethod = method
	payment.Status = models.PaymentPending
	payment.Gateway = models.GatewayRazorpay
	payment.GatewayOrderID = order.ID
	payment.Receipt = receipt
	payment.FailureReason = ""
	payment.FailedAt = nil

	if exists {
		err = db.Save(&payment).Error
	} else {
		err = db.Create(&payment).Error
	}
	if err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to save payment", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"orderId":   order.ID,
		"amount":    order.Amount,
		"currency":  order.Currency,
		"key":       gateway.KeyID(),
		"paymentId": payment.ID,
	})
}

// loadPaymentByOrder finds the caller's payment for a gateway order, writing 404/403 itself
func loadPaymentByOrder(c *gin.Context, orderID string, userID uint) (*models.Payment, bool) {
	var payment models.Payment
	if err := config.GetDB().WithContext(c.Request.Context()).
		Where("gateway_order_id = ?", orderID).
		First(&payment).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
			return nil, false
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load payment", err)
		return nil, false
	}
	if payment.CustomerID != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to update this payment")
		return nil, false
	}
	return &payment, true
}

// VerifyPayment handles POST /api/v1/payments/verify - confirms a checkout via its signature
func VerifyPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	gateway := services.GetPaymentGateway()
	if gateway == nil {
		respondError(c, http.StatusServiceUnavailable, "PAYMENT_GATEWAY_UNAVAILABLE", "Payment gateway is not configured")
		return
	}
	if err := gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		zap.L().Warn("Payment signature rejected", zap.String("order_id", req.OrderID), zap.Error(err))
		respondError(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Payment verification failed")
		return
	}

	payment, ok := loadPaymentByOrder(c, req.OrderID, user.ID)
	if !ok {
		return
	}
	if req.BookingID != 0 && req.BookingID != payment.BookingID {
		respondError(c, http.StatusBadRequest, "BOOKING_MISMATCH", "Payment does not belong to this booking")
		return
	}

	ctx := c.Request.Context()
	now := time.Now()
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(payment).Updates(map[string]interface{}{
			"status":                 models.PaymentCompleted,
			"gateway_payment_id":     req.PaymentID,
			"gateway_transaction_id": req.PaymentID,
			"paid_at":                now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Booking{}).Where("id = ?", payment.BookingID).Updates(map[string]interface{}{
			"status":         models.BookingStatusConfirmed,
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     payment.ID,
		}).Error
	})
	if err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to record payment", err)
		return
	}
	payment.Status = models.PaymentCompleted
	payment.GatewayPaymentID = req.PaymentID
	payment.GatewayTransactionID = req.PaymentID
	payment.PaidAt = &now

	amount := fmt.Sprintf("%s %.2f", payment.Currency, payment.Amount)
	services.Notify(ctx, config.GetDB(), services.NotificationInput{
		UserID:      payment.CustomerID,
		Type:        models.NotificationTypePayment,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Your payment of %s was successful", amount),
		Icon:        "fas fa-check-circle",
		IconColor:   services.IconColorSuccess,
		RelatedID:   &payment.ID,
		RelatedType: "payment",
		ActionURL:   customerPaymentsURL,
	})
	services.Notify(ctx, config.GetDB(), services.NotificationInput{
		UserID:      payment.WorkerID,
		Type:        models.NotificationTypePayment,
		Title:       "New Booking Confirmed",
		Message:     fmt.Sprintf("Payment of %s received for booking #%d", amount, payment.BookingID),
		Urgent:      true,
		Icon:        paymentIcon,
		IconColor:   services.IconColorSuccess,
		RelatedID:   &payment.BookingID,
		RelatedType: "booking",
		ActionURL:   workerPaymentsURL,
	})
	services.GetEmailService().SendPaymentConfirmation(user.Email, payment)

	respondOK(c, http.StatusOK, payment)
}

// PaymentFailed handles POST /api/v1/payments/failed - records a failed checkout
func PaymentFailed(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PaymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	payment, ok := loadPaymentByOrder(c, req.OrderID, user.ID)
	if !ok {
		return
	}

	reason := firstNonEmpty(strings.TrimSpace(req.Error.Description), defaultFailureReason)
	now := time.Now()
	if err := config.GetDB().WithContext(c.Request.Context()).Model(payment).Updates(map[string]interface{}{
		"status":         models.PaymentFailed,
		"failure_reason": reason,
		"failed_at":      now,
	}).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to record payment failure", err)
		return
	}
	payment.Status = models.PaymentFailed
	payment.FailureReason = reason
	payment.FailedAt = &now

	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      payment.CustomerID,
		Type:        models.NotificationTypePayment,
		Title:       "Payment Failed",
		Message:     reason,
		Urgent:      true,
		Icon:        "fas fa-exclamation-circle",
		IconColor:   services.IconColorDanger,
		RelatedID:   &payment.ID,
		RelatedType: "payment",
		ActionURL:   customerPaymentsURL,
	})

	respondOK(c, http.StatusOK, payment)
}

func canViewPayment(user *models.User, payment *models.Payment) bool {
	return payment.CustomerID == user.ID || payment.WorkerID == user.ID || user.Role == models.RoleAdmin
}

// GetPayment handles GET /api/v1/payments/:id - participants only
func GetPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var payment models.Payment
	if err := config.GetDB().WithContext(c.Request.Context()).Preload("Booking").First(&payment, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load payment", err)
		return
	}
	if !canViewPayment(user, &payment) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this payment")
		return
	}

	respondOK(c, http.StatusOK, payment)
}

// GetPaymentByBooking handles GET /api/v1/payments/booking/:bookingId - participants only
func GetPaymentByBooking(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "bookingId")
	if !ok {
		return
	}

	var payment models.Payment
	if err := config.GetDB().WithContext(c.Request.Context()).
		Where("booking_id = ?", bookingID).
		First(&payment).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "No payment found for this booking")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load payment", err)
		return
	}
	if !canViewPayment(user, &payment) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this payment")
		return
	}

	respondOK(c, http.StatusOK, payment)
}
