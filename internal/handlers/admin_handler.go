package handlers

import (
	"denuncias/internal/middleware"
	"denuncias/internal/models"
	"denuncias/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler serves the moderation endpoints.
type AdminHandler struct {
	users    *services.UserService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *services.UserService, validate *validator.Validate, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, validate: validate, logger: logger}
}

// RegisterRoutes registers the admin routes on an authenticated router.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	adminRoutes := router.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/", h.HandlePanel)
	adminRoutes.Get("/users", h.HandleGetUsers)
	adminRoutes.Patch("/users/:id/role", h.HandleChangeRole)
}

// HandlePanel greets an admin.
func (h *AdminHandler) HandlePanel(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	return c.JSON(fiber.Map{
		"message": "welcome, admin",
		"user_id": identity.UserID,
	})
}

// HandleGetUsers lists every user.
func (h *AdminHandler) HandleGetUsers(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	users, err := h.users.ListUsers(identity)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

// HandleChangeRole sets a user's role.
func (h *AdminHandler) HandleChangeRole(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req models.UpdateRoleRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.users.ChangeRole(identity, c.Params("id"), req.Role)
	if err != nil {
		return respondError(c, h.logger, "Could not change role", err)
	}
	return c.JSON(fiber.Map{
		"message": "Role updated",
		"user":    user,
	})
}
