package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func notificationRouter(user *models.User) *gin.Engine {
	router := authedRouter(user)
	router.GET("/notifications", ListNotifications)
	router.POST("/notifications", CreateNotification)
	router.GET("/notifications/stats/summary", NotificationStats)
	router.POST("/notifications/mark-all-read", MarkAllNotificationsRead)
	router.GET("/notifications/:id", GetNotification)
	router.PATCH("/notifications/:id/read", MarkNotificationRead)
	router.DELETE("/notifications/:id", DeleteNotification)
	return router
}

func createNotification(t *testing.T, db *gorm.DB, user *models.User, typ string, urgent, read bool) *models.Notification {
	t.Helper()
	n, err := services.Notify(context.Background(), db, services.NotificationInput{
		UserID:  user.ID,
		Type:    typ,
		Title:   "Title",
		Message: "Message",
		Urgent:  urgent,
	})
	require.NoError(t, err)
	if read {
		require.NoError(t, db.Model(n).Update("is_read", true).Error)
		n.Read = true
	}
	return n
}

func TestListNotifications(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	other := testutil.CreateCustomer(t, db)

	createNotification(t, db, user, models.NotificationTypeBooking, true, false)
	createNotification(t, db, user, models.NotificationTypeBooking, false, true)
	latest := createNotification(t, db, user, models.NotificationTypeMessage, false, false)
	createNotification(t, db, other, models.NotificationTypeMessage, false, false)

	router := notificationRouter(user)

	type listData struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}

	t.Run("all of mine newest first", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/notifications", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var data listData
		decodeData(t, w, &data)
		require.Len(t, data.Notifications, 3)
		assert.Equal(t, latest.ID, data.Notifications[0].ID)
		assert.Equal(t, int64(2), data.UnreadCount)
	})

	tests := []struct {
		query         string
		expectedCount int
	}{
		{"type=booking", 2},
		{"type=message", 1},
		{"read=false", 2},
		{"read=true", 1},
		{"type=booking&read=false", 1},
		{"limit=1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/notifications?"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var data listData
			decodeData(t, w, &data)
			assert.Len(t, data.Notifications, tt.expectedCount)
		})
	}

	for _, query := range []string{"type=spam", "read=maybe", "limit=0"} {
		t.Run("invalid "+query, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/notifications?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateNotification(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	router := notificationRouter(user)

	t.Run("applies defaults", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/notifications", gin.H{"type": "system", "title": "Welcome", "message": "Thanks for joining"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var n models.Notification
		decodeData(t, w, &n)
		assert.Equal(t, user.ID, n.UserID)
		assert.Equal(t, models.DefaultNotificationIcon, n.Icon)
		assert.Equal(t, models.DefaultNotificationIconColor, n.IconColor)
		assert.False(t, n.Read)
	})

	t.Run("invalid type", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/notifications", gin.H{"type": "promo", "title": "x", "message": "y"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TYPE", decodeResponse(t, w).Error.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/notifications", gin.H{"type": "system", "message": "y"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotificationOwnership(t *testing.T) {
	db := setupTestDB(t)
	owner := testutil.CreateCustomer(t, db)
	other := testutil.CreateCustomer(t, db)
	n := createNotification(t, db, owner, models.NotificationTypeSystem, false, false)
	path := fmt.Sprintf("/notifications/%d", n.ID)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, path},
		{http.MethodPatch, path + "/read"},
		{http.MethodDelete, path},
	}
	for _, tt := range tests {
		t.Run(tt.method+" as other user", func(t *testing.T) {
			w := doJSON(t, notificationRouter(other), tt.method, tt.path, nil)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	w := doJSON(t, notificationRouter(owner), http.MethodGet, "/notifications/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	n := createNotification(t, db, user, models.NotificationTypeSystem, false, false)

	w := doJSON(t, notificationRouter(user), http.MethodPatch, fmt.Sprintf("/notifications/%d/read", n.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.True(t, stored.Read)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	other := testutil.CreateCustomer(t, db)
	createNotification(t, db, user, models.NotificationTypeSystem, false, false)
	createNotification(t, db, user, models.NotificationTypeBooking, false, false)
	createNotification(t, db, user, models.NotificationTypeBooking, false, true)
	createNotification(t, db, other, models.NotificationTypeBooking, false, false)

	w := doJSON(t, notificationRouter(user), http.MethodPost, "/notifications/mark-all-read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		UpdatedCount int64 `json:"updatedCount"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, int64(2), data.UpdatedCount)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", other.ID, false).Count(&unread).Error)
	assert.Equal(t, int64(1), unread, "other users are untouched")
}

func TestDeleteNotification(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	n := createNotification(t, db, user, models.NotificationTypeSystem, false, false)

	w := doJSON(t, notificationRouter(user), http.MethodDelete, fmt.Sprintf("/notifications/%d", n.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification deleted", decodeResponse(t, w).Message)

	w = doJSON(t, notificationRouter(user), http.MethodGet, fmt.Sprintf("/notifications/%d", n.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationStats(t *testing.T) {
	db := setupTestDB(t)
	user := testutil.CreateCustomer(t, db)
	createNotification(t, db, user, models.NotificationTypeBooking, true, false)
	createNotification(t, db, user, models.NotificationTypeBooking, true, true)
	createNotification(t, db, user, models.NotificationTypeBooking, false, false)
	createNotification(t, db, user, models.NotificationTypePayment, true, false)
	createNotification(t, db, user, models.NotificationTypeMessage, false, true)

	w := doJSON(t, notificationRouter(user), http.MethodGet, "/notifications/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary NotificationSummary
	decodeData(t, w, &summary)
	assert.Equal(t, int64(5), summary.Total)
	assert.Equal(t, int64(3), summary.Unread)
	assert.Equal(t, int64(2), summary.Urgent)
	assert.Equal(t, &TypeSummary{Total: 3, Unread: 2}, summary.ByType["booking"])
	assert.Equal(t, &TypeSummary{Total: 1, Unread: 1}, summary.ByType["payment"])
	assert.Equal(t, &TypeSummary{Total: 1, Unread: 0}, summary.ByType["message"])
}
