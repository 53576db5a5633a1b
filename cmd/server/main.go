package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/cache"
	"github.com/travelease/ticketing-backend/internal/config"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/handlers"
	"github.com/travelease/ticketing-backend/internal/middleware"
	"github.com/travelease/ticketing-backend/internal/services"
	"github.com/travelease/ticketing-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TravelEase ticketing backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(startupCtx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize redis
	logger.Info("Connecting to redis...")
	redisClient, err := cache.NewClient(startupCtx, cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established")

	// Initialize services
	logger.Info("Initializing services...")
	store := database.NewSQLStore(db)
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	claimStore := cache.NewWebhookClaimStore(redisClient, cfg.Payment.ClaimTTL)
	auditRepository := database.NewPaymentAuditRepository(db, logger)

	bookingService := services.NewBookingService(store, cfg.Payment.Currency, logger)
	tripService := services.NewTripService(store, logger)
	busService := services.NewBusService(store, logger)
	busTypeService := services.NewBusTypeService(store)
	userService := services.NewUserService(store, cfg.Security.BcryptCost, logger)
	authService := services.NewAuthService(store, jwtService, logger)
	webhookService := services.NewWebhookService(cfg.Payment.WebhookSecret, claimStore, auditRepository, bookingService, logger)

	rateLimitConfig := services.DefaultRateLimitConfig()
	rateLimitConfig.MaxEmailAttempts = cfg.Security.MaxLoginAttempts
	rateLimitConfig.EmailWindow = cfg.Security.LoginAttemptWindow
	loginLimiter := services.NewRateLimitService(cache.NewAttemptCounter(redisClient, "login:"), rateLimitConfig, logger)

	cronService := services.NewCronService(authService, logger)
	if err := cronService.Start(cfg.Jobs.SessionPurgeSchedule); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(webhookService, auditRepository, claimStore, logger)
	tripHandler := handlers.NewTripHandler(tripService, logger)
	busHandler := handlers.NewBusHandler(busService, busTypeService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(authService, loginLimiter, logger)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check and metrics
	router.GET("/health", healthCheckHandler(store, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	verifyAdmin := middleware.VerifyAdmin(authService, logger)

	v1 := router.Group("/api/v1")
	{
		// Public trip search
		v1.GET("/trips", tripHandler.SearchTrips)
		v1.GET("/trips/:id", tripHandler.GetTrip)

		// Bookings
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:reference", bookingHandler.GetBooking)
			bookings.PATCH("/:reference", verifyAdmin, bookingHandler.UpdateBooking)
			bookings.DELETE("/:reference", verifyAdmin, bookingHandler.DeleteBooking)
		}

		// Payments
		payments := v1.Group("/payments")
		{
			payments.POST("/checkout", bookingHandler.Checkout)
			payments.POST("/webhook", paymentHandler.Webhook)
		}

		// Admin auth
		adminAuth := v1.Group("/admin/auth")
		{
			adminAuth.POST("/login", adminAuthHandler.Login)
			adminAuth.POST("/logout", verifyAdmin, adminAuthHandler.Logout)
			adminAuth.GET("/me", verifyAdmin, adminAuthHandler.Me)
		}

		// Admin API (requires a live admin session)
		admin := v1.Group("/admin")
		admin.Use(verifyAdmin)
		{
			admin.GET("/bookings", bookingHandler.ListBookings)

			admin.GET("/trips", tripHandler.ListTrips)
			admin.POST("/trips", tripHandler.CreateTrip)
			admin.PATCH("/trips/:id", tripHandler.UpdateTrip)
			admin.DELETE("/trips/:id", tripHandler.DeleteTrip)

			admin.GET("/buses", busHandler.ListBuses)
			admin.GET("/buses/:id", busHandler.GetBus)
			admin.POST("/buses", busHandler.CreateBus)
			admin.PATCH("/buses/:id", busHandler.UpdateBus)
			admin.DELETE("/buses/:id", busHandler.DeleteBus)

			admin.GET("/bus-types", busHandler.ListBusTypes)
			admin.GET("/bus-types/:id", busHandler.GetBusType)
			admin.POST("/bus-types", busHandler.CreateBusType)
			admin.PUT("/bus-types/:id", busHandler.UpdateBusType)
			admin.DELETE("/bus-types/:id", busHandler.DeleteBusType)

			admin.GET("/users", userHandler.ListUsers)
			admin.GET("/users/:id", userHandler.GetUser)
			admin.POST("/users", userHandler.CreateUser)
			admin.PATCH("/users/:id", userHandler.UpdateUser)
			admin.DELETE("/users/:id", userHandler.DeleteUser)

			admin.GET("/payments/audits", paymentHandler.ListAudits)
			admin.GET("/payments/mismatches", paymentHandler.ListAmountMismatches)
			admin.GET("/payments/claims/:reference", paymentHandler.GetClaim)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler reports database and redis reachability
func healthCheckHandler(store *database.SQLStore, redisClient redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus, redisStatus := "healthy", "healthy"
		if err := store.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
		}
		if err := cache.HealthCheck(ctx, redisClient); err != nil {
			redisStatus = "unhealthy"
		}

		status, code := "healthy", http.StatusOK
		if dbStatus != "healthy" || redisStatus != "healthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  dbStatus,
			"redis":     redisStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
