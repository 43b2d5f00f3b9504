package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zarathustragosling/project-management/internal/config"
	"github.com/zarathustragosling/project-management/internal/database"
	"github.com/zarathustragosling/project-management/internal/handlers"
	"github.com/zarathustragosling/project-management/internal/middlewares"
	"github.com/zarathustragosling/project-management/internal/routes"
	"github.com/zarathustragosling/project-management/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Failed to load .env file: %v", err)
	} else {
		log.Println("Loaded .env file successfully")
	}

	// Initialize configuration
	cfg := config.Load()
	log.Printf("Starting server with config: SessionDuration=%v, DeadlineLookahead=%v",
		cfg.SessionDuration, cfg.DeadlineLookahead)

	// Initialize database connection
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatal("Failed to seed database:", err)
	}
	log.Println("Database connection established")

	// Initialize services
	notificationService := services.NewNotificationService(db, cfg.DeadlineLookahead, cfg.SweepInterval)
	reportService := services.NewReportService(db, cfg.ReportDir)

	// Initialize Gin router
	switch os.Getenv("GIN_MODE") {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		log.Printf("GIN_MODE not set or invalid (%s), defaulting to debug", os.Getenv("GIN_MODE"))
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()

	// Add middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Initialize handlers
	h := handlers.New(db, cfg, notificationService, reportService)

	// Create auth middleware instance
	authMiddleware := middlewares.NewAuthMiddleware(db)

	// Setup routes with auth middleware
	routes.Setup(r, h, authMiddleware)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start deadline sweep service
	notificationService.Start()
	log.Printf("Notification service started with interval: %v", cfg.SweepInterval)

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Server shutting down...")

	// Stop deadline sweep service
	notificationService.Stop()

	// Give the server 30 seconds to finish handling requests
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
