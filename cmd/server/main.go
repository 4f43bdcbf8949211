package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/dishshot-intake/config"
	"github.com/ikkim/dishshot-intake/internal/app/controller"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	"github.com/ikkim/dishshot-intake/internal/db"
	"github.com/ikkim/dishshot-intake/internal/middleware"
	"github.com/ikkim/dishshot-intake/internal/router"
	"github.com/ikkim/dishshot-intake/internal/scheduler"
	"github.com/ikkim/dishshot-intake/internal/session"
	"github.com/ikkim/dishshot-intake/internal/storage"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/webhook"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"github.com/ikkim/dishshot-intake/pkg/redis"
)

// submissionLockTTL bounds how long a crashed instance can hold a session's submit lock.
// Live holders renew it, so slow uploads never outlast it.
const submissionLockTTL = 2 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting dish photo intake server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Object storage
	var objectStorage submission.ObjectStorage
	if cfg.S3.Bucket != "" {
		objectStorage = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	} else {
		logger.Warn("AWS_S3_BUCKET is empty, keeping uploads in memory")
		objectStorage = storage.NewMemoryStorage("")
	}

	// Submission guard
	var guard submission.Guard = submission.NewLocalGuard()
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-process submission guard", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			guard = submission.NewRedisGuard(redis.GetClient(), submissionLockTTL)
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db.GetDB())
	submissionRepo := repository.NewSubmissionRepository(db.GetDB())

	// Initialize services
	notifier := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Timeout)
	orchestrator := submission.NewOrchestrator(objectStorage, clientRepo, submissionRepo, notifier, guard)
	sessions := session.NewManager()
	wizardService := service.NewWizardService(sessions, orchestrator, cfg.Session.ResumeAfterSubmit)
	clientService := service.NewClientService(clientRepo, submissionRepo)

	// Start session sweeper
	sweeper := scheduler.NewSessionSweeper(sessions, cfg.Session.SweepSchedule, cfg.Session.TTL)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}

	// Initialize controllers
	wizardController := controller.NewWizardController(wizardService)
	dishController := controller.NewDishController(wizardService, cfg.Upload.MaxFileSize)
	clientController := controller.NewClientController(clientService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		wizardController,
		dishController,
		clientController,
		authMiddleware,
		cfg,
	)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	sweeper.Stop()
	notifier.Wait()

	logger.Info("Server stopped successfully")
}
