// Package server assembles the Fiber application: middleware, health and
// metrics endpoints, static uploads and the versioned API.
package server

import (
	"time"

	"denuncias/internal/handlers"
	"denuncias/internal/metrics"
	"denuncias/internal/middleware"
	"denuncias/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

var protectedPrefixes = []string{"/complaints", "/users", "/admin"}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth       *services.AuthService
	Complaints *services.ComplaintService
	Users      *services.UserService
	Validate   *validator.Validate
	Logger     *zap.Logger
	Metrics    *metrics.Metrics

	// DatabaseCheck reports storage health; nil means no database.
	DatabaseCheck func() error

	CORSOrigins string
	BodyLimitMB int
	// UploadDir is served under UploadURLPrefix when set.
	UploadDir       string
	UploadURLPrefix string
	// AccessLog enables the per-request access log line.
	AccessLog bool
}

// New builds the Fiber application.
func New(d Deps) *fiber.App {
	cfg := fiber.Config{
		AppName:      "denuncias-api",
		ErrorHandler: handlers.ErrorHandler(d.Logger),
	}
	if d.BodyLimitMB > 0 {
		cfg.BodyLimit = d.BodyLimitMB * 1024 * 1024
	}
	app := fiber.New(cfg)

	// --- Middleware ---
	// Metrics wraps recover so recovered panics are counted as 500s.
	app.Use(d.Metrics.Middleware())
	app.Use(fiberrecover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New())
	}
	origins := d.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "API running"})
	})
	app.Get("/health", healthHandler(d.DatabaseCheck))
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}
	if d.UploadDir != "" {
		prefix := d.UploadURLPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		app.Static(prefix, d.UploadDir)
	}

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(d.Auth, d.Validate, d.Logger)
	complaintHandler := handlers.NewComplaintHandler(d.Complaints, d.Validate, d.Logger)
	userHandler := handlers.NewUserHandler(d.Users, d.Complaints, d.Validate, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Users, d.Validate, d.Logger)

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	complaintHandler.RegisterPublicRoutes(apiV1)

	// Protected routes (require JWT authentication). The check is mounted
	// per resource so unknown paths under /api/v1 still answer 404.
	authRequired := middleware.AuthRequired(d.Auth, d.Logger)
	for _, prefix := range protectedPrefixes {
		apiV1.Use(prefix, authRequired)
	}
	complaintHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1)
	adminHandler.RegisterRoutes(apiV1)

	return app
}

func healthHandler(check func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		database := "not configured"
		status := fiber.StatusOK
		if check != nil {
			database = "connected"
			if err := check(); err != nil {
				database = "unreachable: " + err.Error()
				status = fiber.StatusServiceUnavailable
			}
		}
		health := "healthy"
		if status != fiber.StatusOK {
			health = "unhealthy"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   health,
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}
