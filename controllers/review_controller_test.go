package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewRouter(user *models.User) *gin.Engine {
	router := authedRouter(user)
	router.POST("/reviews", CreateReview)
	router.GET("/reviews", ListReviews)
	router.GET("/reviews/worker/:workerId", GetWorkerReviews)
	router.GET("/reviews/:id", GetReview)
	router.PATCH("/reviews/:id", UpdateReview)
	router.POST("/reviews/:id/response", RespondToReview)
	router.DELETE("/reviews/:id", DeleteReview)
	return router
}

func TestCreateReview_WithoutBooking(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	router := reviewRouter(customer)

	w := doJSON(t, router, http.MethodPost, "/reviews", gin.H{"workerId": worker.ID, "rating": 4, "comment": "  Quick and tidy  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var review models.Review
	decodeData(t, w, &review)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "Quick and tidy", review.Comment)
	assert.Equal(t, models.ReviewStatusActive, review.Status)

	var n models.Notification
	require.NoError(t, db.Where("user_id = ?", worker.ID).First(&n).Error)
	assert.Equal(t, "New Review", n.Title)
	assert.Equal(t, models.NotificationTypeReview, n.Type)

	w = doJSON(t, router, http.MethodPost, "/reviews", gin.H{"workerId": worker.ID, "rating": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REVIEW_EXISTS", decodeResponse(t, w).Error.Code)
}

func TestCreateReview_WithBooking(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	other := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	otherWorker := testutil.CreateWorker(t, db, "Painter", 300)

	completed := testutil.CreateBooking(t, db, customer, worker, models.BookingStatusCompleted)
	pending := testutil.CreateBooking(t, db, customer, worker, models.BookingStatusPending)
	othersBooking := testutil.CreateBooking(t, db, other, worker, models.BookingStatusCompleted)

	router := reviewRouter(customer)

	tests := []struct {
		name           string
		body           gin.H
		expectedStatus int
		expectedCode   string
	}{
		{"unknown booking", gin.H{"workerId": worker.ID, "bookingId": 99999, "rating": 5}, http.StatusNotFound, "BOOKING_NOT_FOUND"},
		{"someone else's booking", gin.H{"workerId": worker.ID, "bookingId": othersBooking.ID, "rating": 5}, http.StatusForbidden, "FORBIDDEN"},
		{"booking for another worker", gin.H{"workerId": otherWorker.ID, "bookingId": completed.ID, "rating": 5}, http.StatusBadRequest, "BOOKING_MISMATCH"},
		{"booking not completed", gin.H{"workerId": worker.ID, "bookingId": pending.ID, "rating": 5}, http.StatusBadRequest, "BOOKING_NOT_COMPLETED"},
		{"completed booking", gin.H{"workerId": worker.ID, "bookingId": completed.ID, "rating": 5}, http.StatusCreated, ""},
		{"second review of same booking", gin.H{"workerId": worker.ID, "bookingId": completed.ID, "rating": 3}, http.StatusConflict, "REVIEW_EXISTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/reviews", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeResponse(t, w).Error.Code)
			}
		})
	}
}

func TestCreateReview_Validation(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	router := reviewRouter(customer)

	tests := []struct {
		name           string
		body           gin.H
		expectedStatus int
		expectedCode   string
	}{
		{"rating above range", gin.H{"workerId": worker.ID, "rating": 6}, http.StatusBadRequest, "INVALID_RATING"},
		{"negative rating", gin.H{"workerId": worker.ID, "rating": -1}, http.StatusBadRequest, "INVALID_RATING"},
		{"sub-rating out of range", gin.H{"workerId": worker.ID, "rating": 4, "punctuality": 9}, http.StatusBadRequest, "INVALID_RATING"},
		{"missing rating", gin.H{"workerId": worker.ID}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing worker", gin.H{"rating": 4}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"self review", gin.H{"workerId": customer.ID, "rating": 4}, http.StatusBadRequest, "SELF_REVIEW"},
		{"unknown worker", gin.H{"workerId": 99999, "rating": 4}, http.StatusNotFound, "WORKER_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/reviews", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestListReviews(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	other := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)

	mine := testutil.CreateReview(t, db, customer, worker, 5)
	testutil.CreateReview(t, db, other, worker, 3)
	hidden := testutil.CreateReview(t, db, other, worker, 1)
	require.NoError(t, db.Model(hidden).Update("status", models.ReviewStatusHidden).Error)

	router := reviewRouter(customer)

	t.Run("defaults to own reviews", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/reviews", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var reviews []models.Review
		decodeData(t, w, &reviews)
		require.Len(t, reviews, 1)
		assert.Equal(t, mine.ID, reviews[0].ID)
	})

	t.Run("by worker", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/reviews?workerId=%d", worker.ID), nil)
		var reviews []models.Review
		decodeData(t, w, &reviews)
		assert.Len(t, reviews, 2)
	})

	t.Run("hidden status", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/reviews?workerId=%d&status=hidden", worker.ID), nil)
		var reviews []models.Review
		decodeData(t, w, &reviews)
		require.Len(t, reviews, 1)
		assert.Equal(t, hidden.ID, reviews[0].ID)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/reviews?status=spam", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid id filter", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/reviews?workerId=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetWorkerReviews(t *testing.T) {
	db := setupTestDB(t)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	for _, rating := range []int{5, 4, 4} {
		testutil.CreateReview(t, db, testutil.CreateCustomer(t, db), worker, rating)
	}
	deleted := testutil.CreateReview(t, db, testutil.CreateCustomer(t, db), worker, 1)
	require.NoError(t, db.Model(deleted).Update("status", models.ReviewStatusDeleted).Error)

	w := doJSON(t, reviewRouter(worker), http.MethodGet, fmt.Sprintf("/reviews/worker/%d", worker.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Reviews []models.Review `json:"reviews"`
		Stats   struct {
			Total         int64         `json:"total"`
			AverageRating float64       `json:"averageRating"`
			RatingCounts  map[int]int64 `json:"ratingCounts"`
		} `json:"stats"`
	}
	decodeData(t, w, &data)
	assert.Len(t, data.Reviews, 3)
	assert.Equal(t, int64(3), data.Stats.Total)
	assert.Equal(t, 4.3, data.Stats.AverageRating)
	assert.Equal(t, map[int]int64{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, data.Stats.RatingCounts)
}

func TestUpdateReview(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	review := testutil.CreateReview(t, db, customer, worker, 3)
	path := fmt.Sprintf("/reviews/%d", review.ID)

	t.Run("author edits", func(t *testing.T) {
		w := doJSON(t, reviewRouter(customer), http.MethodPatch, path, gin.H{"rating": 5, "comment": "Came back and fixed it"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated models.Review
		decodeData(t, w, &updated)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "Came back and fixed it", updated.Comment)
	})

	t.Run("invalid rating", func(t *testing.T) {
		w := doJSON(t, reviewRouter(customer), http.MethodPatch, path, gin.H{"rating": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not the author", func(t *testing.T) {
		w := doJSON(t, reviewRouter(worker), http.MethodPatch, path, gin.H{"rating": 1})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRespondToReview(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	review := testutil.CreateReview(t, db, customer, worker, 4)
	path := fmt.Sprintf("/reviews/%d/response", review.ID)

	t.Run("customer cannot respond", func(t *testing.T) {
		w := doJSON(t, reviewRouter(customer), http.MethodPost, path, gin.H{"response": "Thanks"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("blank response", func(t *testing.T) {
		w := doJSON(t, reviewRouter(worker), http.MethodPost, path, gin.H{"response": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("worker responds", func(t *testing.T) {
		w := doJSON(t, reviewRouter(worker), http.MethodPost, path, gin.H{"response": "Thanks for the kind words"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var stored models.Review
		require.NoError(t, db.First(&stored, review.ID).Error)
		assert.Equal(t, "Thanks for the kind words", stored.WorkerResponse)
		assert.NotNil(t, stored.WorkerResponseAt)

		var n models.Notification
		require.NoError(t, db.Where("user_id = ?", customer.ID).First(&n).Error)
		assert.Equal(t, "Worker Responded", n.Title)
	})
}

func TestDeleteReview(t *testing.T) {
	db := setupTestDB(t)
	customer := testutil.CreateCustomer(t, db)
	worker := testutil.CreateWorker(t, db, "Plumber", 300)
	review := testutil.CreateReview(t, db, customer, worker, 2)
	path := fmt.Sprintf("/reviews/%d", review.ID)

	w := doJSON(t, reviewRouter(worker), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, reviewRouter(customer), http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Review deleted", decodeResponse(t, w).Message)

	var stored models.Review
	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, models.ReviewStatusDeleted, stored.Status)

	w = doJSON(t, reviewRouter(customer), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
