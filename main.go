package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/controllers"
	"github.com/nearnect/nearnect-api/logger"
	"github.com/nearnect/nearnect-api/middleware"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName     = "nearnect-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zlog, err := logger.Init(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer zlog.Sync() //nolint:errcheck

	zlog.Info("Starting NearNect API server...", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(); err != nil {
		return err
	}
	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		return err
	}
	zlog.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := services.InitStorage(ctx, cfg); err != nil {
		return err
	}
	services.InitPaymentGateway(cfg)

	emailSvc := services.NewEmailService(services.NewMailer(cfg), cfg.FrontendURL)
	services.SetEmailService(emailSvc)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Warn("Redis unreachable, rate limiting will let requests through", zap.Error(err))
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, zlog, rdb)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Server is running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	emailSvc.Wait()
	return nil
}

// setupRouter wires every route. rdb may be nil, in which case the public
// worker routes are not rate limited.
func setupRouter(cfg *config.Config, zlog *zap.Logger, rdb *redis.Client) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(zlog))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zlog))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/uploads/:folder/:filename", controllers.ServeUpload)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.POST("/auth/signup", controllers.Signup)
		v1.POST("/auth/login", controllers.Login)

		workers := v1.Group("/workers")
		if rdb != nil {
			workers.Use(middleware.RateLimit(rdb, cfg.RateLimitRPS))
		}
		{
			workers.GET("", controllers.SearchWorkers)
			workers.GET("/nearby/count", controllers.NearbyWorkerCount)
			workers.GET("/skills/list", controllers.ListSkills)
			workers.GET("/:id", controllers.GetWorkerProfile)
		}

		protected := v1.Group("")
		protected.Use(middleware.EnsureValidToken(cfg))
		{
			protected.GET("/auth/me", controllers.GetMyProfile)
			protected.PATCH("/auth/me", controllers.UpdateMyProfile)

			protected.POST("/bookings", controllers.CreateBooking)
			protected.GET("/bookings", controllers.ListBookings)
			protected.GET("/bookings/worker/:workerId", controllers.ListWorkerBookings)
			protected.GET("/bookings/:id", controllers.GetBooking)
			protected.PATCH("/bookings/:id", controllers.UpdateBookingStatus)
			protected.DELETE("/bookings/:id", controllers.CancelBooking)

			protected.POST("/reviews", controllers.CreateReview)
			protected.GET("/reviews", controllers.ListReviews)
			protected.GET("/reviews/worker/:workerId", controllers.GetWorkerReviews)
			protected.GET("/reviews/:id", controllers.GetReview)
			protected.PATCH("/reviews/:id", controllers.UpdateReview)
			protected.POST("/reviews/:id/response", controllers.RespondToReview)
			protected.DELETE("/reviews/:id", controllers.DeleteReview)

			protected.GET("/messages", controllers.ListConversations)
			protected.POST("/messages", controllers.SendMessage)
			protected.GET("/messages/user/:userId", controllers.GetConversationWithUser)
			protected.GET("/messages/:id", controllers.GetConversation)
			protected.PATCH("/messages/:id/read", controllers.MarkMessageRead)
			protected.DELETE("/messages/:id", controllers.DeleteMessage)

			protected.GET("/notifications", controllers.ListNotifications)
			protected.POST("/notifications", controllers.CreateNotification)
			protected.GET("/notifications/stats/summary", controllers.NotificationStats)
			protected.POST("/notifications/mark-all-read", controllers.MarkAllNotificationsRead)
			protected.GET("/notifications/:id", controllers.GetNotification)
			protected.PATCH("/notifications/:id/read", controllers.MarkNotificationRead)
			protected.DELETE("/notifications/:id", controllers.DeleteNotification)

			protected.POST("/payments/create-order", controllers.CreatePaymentOrder)
			protected.POST("/payments/verify", controllers.VerifyPayment)
			protected.POST("/payments/failed", controllers.PaymentFailed)
			protected.GET("/payments/booking/:bookingId", controllers.GetPaymentByBooking)
			protected.GET("/payments/:id", controllers.GetPayment)

			protected.POST("/upload/avatar", controllers.UploadAvatar)
			protected.POST("/upload/gallery", controllers.UploadGallery)
			protected.POST("/upload/document", controllers.UploadDocument)
			protected.DELETE("/upload/:filename", controllers.DeleteUpload)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.EnsureValidToken(cfg), middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", controllers.GetAdminStats)
			admin.GET("/users", controllers.AdminListUsers)
			admin.GET("/users/:id", controllers.AdminGetUser)
			admin.PATCH("/users/:id", controllers.AdminUpdateUser)
			admin.DELETE("/users/:id", controllers.AdminDeleteUser)
			admin.GET("/bookings", controllers.AdminListBookings)
			admin.PATCH("/bookings/:id", controllers.AdminUpdateBooking)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders: []string{middleware.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "NearNect API is running",
		"service": serviceName,
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
