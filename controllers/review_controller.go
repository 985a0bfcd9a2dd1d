package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
)

// CreateReviewRequest represents the request body for reviewing a worker
type CreateReviewRequest struct {
	WorkerID        uint   `json:"workerId" binding:"required"`
	BookingID       *uint  `json:"bookingId"`
	Rating          int    `json:"rating" binding:"required"`
	Comment         string `json:"comment"`
	ServiceQuality  *int   `json:"serviceQuality"`
	Punctuality     *int   `json:"punctuality"`
	Professionalism *int   `json:"professionalism"`
}

// UpdateReviewRequest represents the editable fields of a review
type UpdateReviewRequest struct {
	Rating          *int    `json:"rating"`
	Comment         *string `json:"comment"`
	ServiceQuality  *int    `json:"serviceQuality"`
	Punctuality     *int    `json:"punctuality"`
	Professionalism *int    `json:"professionalism"`
}

// ReviewResponseRequest is the body of POST /reviews/:id/response
type ReviewResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

func validSubRatings(ratings ...*int) bool {
	for _, r := range ratings {
		if r != nil && !models.IsValidRating(*r) {
			return false
		}
	}
	return true
}

// loadReview fetches a non-deleted review, writing 404/500 itself
func loadReview(c *gin.Context, id uint) (*models.Review, bool) {
	var review models.Review
	err := config.GetDB().WithContext(c.Request.Context()).
		Preload("Customer").Preload("Worker").
		Where("status <> ?", models.ReviewStatusDeleted).
		First(&review, id).Error
	if err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
			return nil, false
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load review", err)
		return nil, false
	}
	return &review, true
}

// CreateReview handles POST /api/v1/reviews - a customer rates a worker
func CreateReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !models.IsValidRating(req.Rating) || !validSubRatings(req.ServiceQuality, req.Punctuality, req.Professionalism) {
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "Ratings must be between 1 and 5")
		return
	}
	if req.WorkerID == user.ID {
		respondError(c, http.StatusBadRequest, "SELF_REVIEW", "You cannot review yourself")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var worker models.User
	if err := db.First(&worker, req.WorkerID).Error; err != nil || !worker.IsWorker() {
		if err != nil && !isNotFound(err) {
			respondServerError(c, "DATABASE_ERROR", "Failed to load worker", err)
			return
		}
		respondError(c, http.StatusNotFound, "WORKER_NOT_FOUND", "Worker not found")
		return
	}

	var existing int64
	if req.BookingID != nil {
		var booking models.Booking
		if err := db.First(&booking, *req.BookingID).Error; err != nil {
			if isNotFound(err) {
				respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
				return
			}
			respondServerError(c, "DATABASE_ERROR", "Failed to load booking", err)
			return
		}
		if booking.CustomerID != user.ID {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only review your own bookings")
			return
		}
		if booking.WorkerID != worker.ID {
			respondError(c, http.StatusBadRequest, "BOOKING_MISMATCH", "Booking does not belong to this worker")
			return
		}
		if booking.Status != models.BookingStatusCompleted {
			respondError(c, http.StatusBadRequest, "BOOKING_NOT_COMPLETED", "Only completed bookings can be reviewed")
			return
		}
		if err := db.Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to check existing review", err)
			return
		}
	} else {
		if err := db.Model(&models.Review{}).
			Where("customer_id = ? AND worker_id = ? AND status = ?", user.ID, worker.ID, models.ReviewStatusActive).
			Count(&existing).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to check existing review", err)
			return
		}
	}
	if existing > 0 {
		respondError(c, http.StatusConflict, "REVIEW_EXISTS", "You have already reviewed this worker")
		return
	}

	review := models.Review{
		CustomerID:      user.ID,
		WorkerID:        worker.ID,
		BookingID:       req.BookingID,
		Rating:          req.Rating,
		Comment:         strings.TrimSpace(req.Comment),
		ServiceQuality:  req.ServiceQuality,
		Punctuality:     req.Punctuality,
		Professionalism: req.Professionalism,
		Status:          models.ReviewStatusActive,
	}
	if err := db.Create(&review).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to create review", err)
		return
	}

	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      worker.ID,
		Type:        models.NotificationTypeReview,
		Title:       "New Review",
		Message:     fmt.Sprintf("%s left you a %d-star review", user.Name, review.Rating),
		Icon:        "fas fa-star",
		RelatedID:   &review.ID,
		RelatedType: "review",
	})

	review.Customer = user
	review.Worker = &worker
	respondOK(c, http.StatusCreated, review)
}

// ListReviews handles GET /api/v1/reviews. Without a worker, customer or
// booking filter it lists the caller's own reviews.
func ListReviews(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	workerID, ok := queryID(c, "workerId")
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customerId")
	if !ok {
		return
	}
	bookingID, ok := queryID(c, "bookingId")
	if !ok {
		return
	}

	status := c.DefaultQuery("status", models.ReviewStatusActive)
	switch status {
	case models.ReviewStatusActive, models.ReviewStatusHidden, models.ReviewStatusDeleted:
	default:
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid review status")
		return
	}

	query := config.GetDB().WithContext(c.Request.Context()).
		Preload("Customer").Preload("Worker").
		Where("status = ?", status)
	if workerID == 0 && customerID == 0 && bookingID == 0 {
		customerID = user.ID
	}
	if workerID != 0 {
		query = query.Where("worker_id = ?", workerID)
	}
	if customerID != 0 {
		query = query.Where("customer_id = ?", customerID)
	}
	if bookingID != 0 {
		query = query.Where("booking_id = ?", bookingID)
	}

	reviews := []models.Review{}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(maxListLimit).Find(&reviews).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch reviews", err)
		return
	}

	respondOK(c, http.StatusOK, reviews)
}

// GetReview handles GET /api/v1/reviews/:id
func GetReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	review, ok := loadReview(c, id)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, review)
}

// GetWorkerReviews handles GET /api/v1/reviews/worker/:workerId - active reviews with rating stats
func GetWorkerReviews(c *gin.Context) {
	workerID, ok := paramID(c, "workerId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	reviews := []models.Review{}
	if err := config.GetDB().WithContext(ctx).
		Preload("Customer").
		Where("worker_id = ? AND status = ?", workerID, models.ReviewStatusActive).
		Order("created_at DESC").Order("id DESC").
		Limit(maxListLimit).
		Find(&reviews).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch reviews", err)
		return
	}

	avg, total, counts, err := services.RatingSummary(ctx, config.GetDB(), workerID)
	if err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to summarise reviews", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"reviews": reviews,
		"stats": gin.H{
			"total":         total,
			"averageRating": avg,
			"ratingCounts":  counts,
		},
	})
}

// UpdateReview handles PATCH /api/v1/reviews/:id - author only
func UpdateReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !validSubRatings(req.Rating, req.ServiceQuality, req.Punctuality, req.Professionalism) {
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "Ratings must be between 1 and 5")
		return
	}

	review, ok := loadReview(c, id)
	if !ok {
		return
	}
	if review.CustomerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only edit your own reviews")
		return
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = strings.TrimSpace(*req.Comment)
	}
	if req.ServiceQuality != nil {
		updates["service_quality"] = *req.ServiceQuality
	}
	if req.Punctuality != nil {
		updates["punctuality"] = *req.Punctuality
	}
	if req.Professionalism != nil {
		updates["professionalism"] = *req.Professionalism
	}

	if len(updates) > 0 {
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Model(&models.Review{}).Where("id = ?", review.ID).Updates(updates).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to update review", err)
			return
		}
		if review, ok = loadReview(c, review.ID); !ok {
			return
		}
	}

	respondOK(c, http.StatusOK, review)
}

// RespondToReview handles POST /api/v1/reviews/:id/response - the reviewed worker replies
func RespondToReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ReviewResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	response := strings.TrimSpace(req.Response)
	if response == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Response cannot be empty")
		return
	}

	review, ok := loadReview(c, id)
	if !ok {
		return
	}
	if review.WorkerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the reviewed worker can respond")
		return
	}

	now := time.Now()
	if err := config.GetDB().WithContext(c.Request.Context()).
		Model(&models.Review{}).Where("id = ?", review.ID).
		Updates(map[string]interface{}{"worker_response": response, "worker_response_at": now}).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to save response", err)
		return
	}
	review.WorkerResponse = response
	review.WorkerResponseAt = &now

	services.Notify(c.Request.Context(), config.GetDB(), services.NotificationInput{
		UserID:      review.CustomerID,
		Type:        models.NotificationTypeReview,
		Title:       "Worker Responded",
		Message:     fmt.Sprintf("%s responded to your review", user.Name),
		RelatedID:   &review.ID,
		RelatedType: "review",
	})

	respondOK(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/:id - author only, marks the review deleted
func DeleteReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	review, ok := loadReview(c, id)
	if !ok {
		return
	}
	if review.CustomerID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only delete your own reviews")
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).
		Model(&models.Review{}).Where("id = ?", review.ID).
		Update("status", models.ReviewStatusDeleted).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to delete review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Review deleted",
	})
}
