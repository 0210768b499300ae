package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"coopfin-backend/internal/adapters/http/middleware"
	"coopfin-backend/internal/adapters/http/routes"
	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/config"
	"coopfin-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "coopfin-backend/docs" // Swagger docs
)

// @title CoopFin API
// @version 1.0
// @description Membership financial management API: payments, dues, levies, pledges, donations and loans.

// @contact.name API Support
// @contact.email support@coopfin.app

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the super admin account and the settings record
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Scheduled jobs: daily overdue sweep and nightly token cleanup
	settingRepo := repositories.NewSettingRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	notifyService := services.NewNotificationService(&cfg.Notify, settingRepo)
	cronService := services.NewCronService(db, settingRepo, refreshTokenRepo, notifyService)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CoopFin API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
