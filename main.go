package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"denuncias/internal/config"
	"denuncias/internal/database"
	"denuncias/internal/logging"
	"denuncias/internal/metrics"
	"denuncias/internal/repositories"
	"denuncias/internal/server"
	"denuncias/internal/services"
	"denuncias/internal/storage"
	"denuncias/internal/validation"
	"denuncias/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	app, cleanup, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	// --- Start HTTP Server ---
	logger.Info("starting server", zap.String("port", cfg.AppPort))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logger.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

// newApp wires repositories, photo storage, the event publisher and the
// services into the Fiber application. cleanup releases the connections.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Initialize Repositories ---
	var (
		userRepo      repositories.UserRepository
		complaintRepo repositories.ComplaintRepository
		databaseCheck func() error
	)
	if cfg.DatabaseDriver == "memory" {
		logger.Warn("using in-memory repositories, data is lost on restart")
		userRepo = repositories.NewInMemoryUserRepository()
		complaintRepo = repositories.NewInMemoryComplaintRepository()
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
		if err := database.Migrate(db); err != nil {
			return nil, cleanup, err
		}
		userRepo = repositories.NewGORMUserRepository(db)
		complaintRepo = repositories.NewGORMComplaintRepository(db)
		databaseCheck = func() error { return database.Ping(db) }
	}

	// --- Photo storage ---
	var (
		store     storage.Store
		uploadDir string
	)
	switch cfg.StorageDriver {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
			PublicURL:    cfg.S3PublicURL,
		})
		if err != nil {
			return nil, cleanup, err
		}
		store = s3Store
	default:
		localStore, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
		if err != nil {
			return nil, cleanup, err
		}
		store = localStore
		uploadDir = localStore.Dir()
	}

	// --- Initialize RabbitMQ Client ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		closers = append(closers, func() {
			if err := mqClient.Close(); err != nil {
				logger.Warn("failed to close RabbitMQ client", zap.Error(err))
			}
		})
		events = mqClient

		// Audit consumer for complaint lifecycle events.
		if err := mqClient.ConsumeComplaintEvents(rabbitmq.LogComplaintEvents(logger)); err != nil {
			logger.Error("failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		logger.Info("RABBITMQ_URL not set, complaint events disabled")
	}

	// --- Initialize Services ---
	m := metrics.New()
	photos := services.NewPhotoService(store, cfg.PhotoMaxDimension, cfg.PhotoMaxPixels, cfg.PhotoJPEGQuality, logger)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	complaintService := services.NewComplaintService(complaintRepo, photos, events, m, logger)
	userService := services.NewUserService(userRepo, photos, logger)

	if err := seedAdmin(authService, cfg); err != nil {
		return nil, cleanup, err
	}

	app := server.New(server.Deps{
		Auth:            authService,
		Complaints:      complaintService,
		Users:           userService,
		Validate:        validation.New(),
		Logger:          logger,
		Metrics:         m,
		DatabaseCheck:   databaseCheck,
		CORSOrigins:     cfg.CORSOrigins,
		BodyLimitMB:     cfg.BodyLimitMB,
		UploadDir:       uploadDir,
		UploadURLPrefix: cfg.UploadURLPrefix,
		AccessLog:       true,
	})
	return app, cleanup, nil
}

// seedAdmin creates the bootstrap administrator when ADMIN_EMAIL and
// ADMIN_PASSWORD are configured.
func seedAdmin(authService *services.AuthService, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminPhone, cfg.AdminCPF); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
