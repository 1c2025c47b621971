// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/soihub/soi-hub-backend/internal/api/handlers"
	"github.com/soihub/soi-hub-backend/internal/api/middleware"
	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/soihub/soi-hub-backend/internal/cron"
	"github.com/soihub/soi-hub-backend/internal/db"
	"github.com/soihub/soi-hub-backend/internal/email"
	"github.com/soihub/soi-hub-backend/internal/membership"
	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/seed"
	"github.com/soihub/soi-hub-backend/internal/service"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewPgRepositories(pg.Pool)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailSvc *email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	if emailSvc != nil {
		notificationSvc.SetEmailService(emailSvc)
	}

	// ============================================
	// Initialize Membership Register Client
	// ============================================
	membershipClient := membership.NewClient(cfg, redisDB)
	if cfg.MembershipWriteEnabled {
		log.Println("⚠️  Membership register WRITES ENABLED")
	} else {
		log.Println("🔒 Membership register in read-only mode")
	}

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		NotifSvc: notificationSvc,
		EmailSvc: emailSvc,
		Cache:    redisDB,
	})
	log.Println("✨ All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services, membershipClient, repos.ConfigRepo)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(services, cfg.ReminderSchedule)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"database":  "connected",
			"cache":     getCacheStatus(redisDB),
			"email":     getEmailStatus(emailSvc),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			staffOnly := middleware.RequireStaff(repos.UserRepo)
			adminOnly := middleware.RequireAdmin(repos.UserRepo)

			// Event routes
			events := protected.Group("/events")
			{
				events.GET("", h.Event.List)
				events.GET("/:id", h.Event.Get)
				events.POST("", staffOnly, h.Event.Create)
				events.PUT("/:id", staffOnly, h.Event.Update)
				events.POST("/:id/activate", staffOnly, h.Event.Activate)
				events.POST("/:id/archive", staffOnly, h.Event.Archive)

				// Roles
				events.GET("/:id/roles", h.Role.ListByEvent)
				events.POST("/:id/roles", staffOnly, h.Role.Create)

				// Dashboard
				events.GET("/:id/dashboard", staffOnly, h.Admin.EventDashboard)
			}

			// Role routes
			roles := protected.Group("/roles")
			{
				roles.GET("/:roleId", h.Role.Get)
				roles.PUT("/:roleId", staffOnly, h.Role.Update)
				roles.POST("/:roleId/close", staffOnly, h.Role.Close)
				roles.GET("/:roleId/assignments", staffOnly, h.Role.ListByRole)

				// Volunteers reserve their own position
				roles.POST("/:roleId/reserve", h.Role.Reserve)
			}

			// Assignment routes
			assignments := protected.Group("/assignments")
			{
				assignments.GET("/my", h.Role.MyAssignments)
				assignments.POST("/:assignmentId/confirm", staffOnly, h.Role.Confirm)
				assignments.POST("/:assignmentId/release", h.Role.Release)
			}

			// Task routes
			tasks := protected.Group("/tasks")
			{
				tasks.GET("/my", h.Task.MyTasks)
				tasks.GET("", staffOnly, h.Task.List)
				tasks.GET("/:id", h.Task.Get)
				tasks.POST("", staffOnly, h.Task.Create)
				tasks.PUT("/:id", staffOnly, h.Task.Update)
				tasks.POST("/:id/deactivate", staffOnly, h.Task.Deactivate)
			}

			// Task instance routes
			instances := protected.Group("/instances")
			{
				instances.GET("/my", h.Instance.MyInstances)
				instances.GET("/pending-review", staffOnly, h.Instance.PendingReview)
				instances.GET("/:id", h.Instance.Get)
				instances.PUT("/:id/progress", h.Instance.SaveProgress)
				instances.POST("/:id/submit", h.Instance.Submit)
				instances.POST("/:id/review", staffOnly, h.Instance.Review)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/count", h.Notification.Count)
				notifications.PUT("/:id/read", h.Notification.MarkAsRead)
				notifications.PUT("/read-all", h.Notification.MarkAllAsRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}

			// Membership register routes
			members := protected.Group("/members", staffOnly)
			{
				members.GET("/:memberId", h.Admin.LookupMember)
				members.GET("/:memberId/credentials/:credential", h.Admin.ValidateCredential)
				members.PUT("/:memberId/profile", adminOnly, h.Admin.SyncProfile)
			}

			// Admin routes
			admin := protected.Group("/admin", adminOnly)
			{
				admin.POST("/reminders/run", h.Admin.TriggerReminders)
				admin.POST("/theme/validate", h.Admin.ValidateTheme)
				admin.GET("/config", h.Admin.ListConfig)
				admin.PUT("/config", h.Admin.UpsertConfig)
			}
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc != nil {
		return "configured"
	}
	return "disabled"
}
