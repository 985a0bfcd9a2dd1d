package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	adminDefaultLimit  = 20
	adminRecentLimit   = 10
	recentActivityDays = 7
)

var (
	userSortColumns = map[string]string{
		"created_at": "created_at",
		"name":       "name",
		"email":      "email",
		"role":       "role",
	}
	bookingSortColumns = map[string]string{
		"created_at":    "created_at",
		"scheduled_for": "scheduled_for",
		"amount":        "amount",
		"status":        "status",
	}
)

// AdminUpdateUserRequest lists the account flags an admin may change
type AdminUpdateUserRequest struct {
	Role       *string `json:"role"`
	IsVerified *bool   `json:"isVerified"`
	IsBlocked  *bool   `json:"isBlocked"`
}

// AdminUpdateBookingRequest lists the booking fields an admin may change
type AdminUpdateBookingRequest struct {
	Status       *string    `json:"status"`
	Amount       *float64   `json:"amount" binding:"omitempty,gte=0"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}

// AdminOverview are the platform-wide totals of GET /admin/stats
type AdminOverview struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalWorkers      int64   `json:"totalWorkers"`
	TotalCustomers    int64   `json:"totalCustomers"`
	TotalBookings     int64   `json:"totalBookings"`
	CompletedBookings int64   `json:"completedBookings"`
	PendingBookings   int64   `json:"pendingBookings"`
	CompletedPayments int64   `json:"completedPayments"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalReviews      int64   `json:"totalReviews"`
	AverageRating     float64 `json:"averageRating"`
}

// AdminActivity counts what happened in the last recentActivityDays days
type AdminActivity struct {
	NewUsers          int64 `json:"newUsers"`
	NewBookings       int64 `json:"newBookings"`
	CompletedPayments int64 `json:"completedPayments"`
}

// AdminStats is the body of GET /admin/stats
type AdminStats struct {
	Overview         AdminOverview    `json:"overview"`
	RecentActivity   AdminActivity    `json:"recentActivity"`
	BookingsByStatus map[string]int64 `json:"bookingsByStatus"`
}

func parsePage(c *gin.Context) (page, limit int, ok bool) {
	if page, ok = utils.ParsePositiveInt(c.Query("page"), 1); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "page must be a positive integer")
		return 0, 0, false
	}
	if limit, ok = utils.ParsePositiveInt(c.Query("limit"), adminDefaultLimit); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
		return 0, 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return page, limit, true
}

// GetAdminStats handles GET /api/v1/admin/stats. The counts run concurrently.
func GetAdminStats(c *gin.Context) {
	g, ctx := errgroup.WithContext(c.Request.Context())
	db := config.GetDB()
	since := time.Now().AddDate(0, 0, -recentActivityDays)

	var stats AdminStats
	count := func(dst *int64, model interface{}, query string, args ...interface{}) {
		g.Go(func() error {
			q := db.WithContext(ctx).Model(model)
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dst).Error
		})
	}

	o := &stats.Overview
	count(&o.TotalUsers, &models.User{}, "")
	count(&o.TotalWorkers, &models.User{}, "role = ?", models.RoleWorker)
	count(&o.TotalCustomers, &models.User{}, "role = ?", models.RoleCustomer)
	count(&o.TotalBookings, &models.Booking{}, "")
	count(&o.CompletedBookings, &models.Booking{}, "status = ?", models.BookingStatusCompleted)
	count(&o.PendingBookings, &models.Booking{}, "status = ?", models.BookingStatusPending)
	count(&o.CompletedPayments, &models.Payment{}, "status = ?", models.PaymentCompleted)
	count(&o.TotalReviews, &models.Review{}, "status = ?", models.ReviewStatusActive)

	a := &stats.RecentActivity
	count(&a.NewUsers, &models.User{}, "created_at >= ?", since)
	count(&a.NewBookings, &models.Booking{}, "created_at >= ?", since)
	count(&a.CompletedPayments, &models.Payment{}, "status = ? AND paid_at >= ?", models.PaymentCompleted, since)

	g.Go(func() error {
		return db.WithContext(ctx).Model(&models.Payment{}).
			Where("status = ?", models.PaymentCompleted).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&o.TotalRevenue).Error
	})
	var avgRating float64
	g.Go(func() error {
		return db.WithContext(ctx).Model(&models.Review{}).
			Where("status = ?", models.ReviewStatusActive).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&avgRating).Error
	})

	var byStatus []struct {
		Status string
		Count  int64
	}
	g.Go(func() error {
		return db.WithContext(ctx).Model(&models.Booking{}).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&byStatus).Error
	})

	if err := g.Wait(); err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to compute statistics", err)
		return
	}

	o.AverageRating = utils.RoundTo1(avgRating)
	stats.BookingsByStatus = make(map[string]int64, len(models.BookingStatuses))
	for _, s := range models.BookingStatuses {
		stats.BookingsByStatus[s] = 0
	}
	for _, row := range byStatus {
		stats.BookingsByStatus[row.Status] = row.Count
	}

	respondOK(c, http.StatusOK, stats)
}

// AdminListUsers handles GET /api/v1/admin/users?role&search&page&limit&sort
func AdminListUsers(c *gin.Context) {
	page, limit, ok := parsePage(c)
	if !ok {
		return
	}

	query := config.GetDB().WithContext(c.Request.Context()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		switch role {
		case models.RoleCustomer, models.RoleWorker, models.RoleAdmin:
		default:
			respondError(c, http.StatusBadRequest, "INVALID_ROLE", "Invalid role")
			return
		}
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		pattern := utils.ContainsPattern(search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to count users", err)
		return
	}

	users := []models.User{}
	if err := query.
		Order(orderClause(c.DefaultQuery("sort", "-created_at"), userSortColumns, "created_at DESC")).
		Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch users", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"users":      users,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

// AdminGetUser handles GET /api/v1/admin/users/:id - the user with their latest activity
func AdminGetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load user", err)
		return
	}

	latest := func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ? OR worker_id = ?", user.ID, user.ID).
			Order("created_at DESC").Order("id DESC").
			Limit(adminRecentLimit)
	}

	bookings := []models.Booking{}
	if err := latest(db).Find(&bookings).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to load bookings", err)
		return
	}
	reviews := []models.Review{}
	if err := latest(db).Find(&reviews).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to load reviews", err)
		return
	}
	payments := []models.Payment{}
	if err := latest(db).Find(&payments).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to load payments", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"user":     user,
		"bookings": bookings,
		"reviews":  reviews,
		"payments": payments,
	})
}

// AdminUpdateUser handles PATCH /api/v1/admin/users/:id
func AdminUpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Role != nil {
		switch *req.Role {
		case models.RoleCustomer, models.RoleWorker, models.RoleAdmin:
			updates["role"] = *req.Role
		default:
			respondError(c, http.StatusBadRequest, "INVALID_ROLE", "Invalid role")
			return
		}
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}
	if req.IsBlocked != nil {
		updates["is_blocked"] = *req.IsBlocked
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		respondServerError(c, "DATABASE_ERROR", "Failed to load user", err)
		return
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to update user", err)
			return
		}
		if err := db.First(&user, id).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to load user", err)
			return
		}
	}

	respondOK(c, http.StatusOK, user)
}

// AdminDeleteUser handles DELETE /api/v1/admin/users/:id - admins cannot delete themselves
func AdminDeleteUser(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id == admin.ID {
		respondError(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account")
		return
	}

	result := config.GetDB().WithContext(c.Request.Context()).Delete(&models.User{}, id)
	if result.Error != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to delete user", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted",
	})
}

// AdminListBookings handles GET /api/v1/admin/bookings?status&workerId&customerId&page&limit&sort
func AdminListBookings(c *gin.Context) {
	page, limit, ok := parsePage(c)
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

	query := config.GetDB().WithContext(c.Request.Context()).Model(&models.Booking{})
	if status := c.Query("status"); status != "" {
		if !models.IsValidBookingStatus(status) {
			respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid booking status")
			return
		}
		query = query.Where("status = ?", status)
	}
	if workerID != 0 {
		query = query.Where("worker_id = ?", workerID)
	}
	if customerID != 0 {
		query = query.Where("customer_id = ?", customerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to count bookings", err)
		return
	}

	bookings := []models.Booking{}
	if err := preloadParticipants(query).
		Order(orderClause(c.DefaultQuery("sort", "-created_at"), bookingSortColumns, "created_at DESC")).
		Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&bookings).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to fetch bookings", err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"bookings":   bookings,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

// AdminUpdateBooking handles PATCH /api/v1/admin/bookings/:id
func AdminUpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AdminUpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Status != nil && !models.IsValidBookingStatus(*req.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid booking status")
		return
	}

	booking, ok := loadBooking(c, id)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	db := config.GetDB()
	if req.Status != nil {
		if err := applyBookingStatus(ctx, db, booking, *req.Status, "Cancelled by admin"); err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to update booking", err)
			return
		}
	}

	updates := make(map[string]interface{})
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.ScheduledFor != nil {
		updates["scheduled_for"] = *req.ScheduledFor
	}
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			respondServerError(c, "DATABASE_ERROR", "Failed to update booking", err)
			return
		}
	}

	if booking, ok = loadBooking(c, id); !ok {
		return
	}
	respondOK(c, http.StatusOK, booking)
}
