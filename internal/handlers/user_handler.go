package handlers

import (
	"io"

	"denuncias/internal/middleware"
	"denuncias/internal/models"
	"denuncias/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles profile requests.
type UserHandler struct {
	users      *services.UserService
	complaints *services.ComplaintService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, complaints *services.ComplaintService, validate *validator.Validate, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		complaints: complaints,
		validate:   validate,
		logger:     logger,
	}
}

// RegisterRoutes registers the user routes on an authenticated router.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Patch("/me", h.HandleUpdateMe)
	userRoutes.Get("/:id/complaints", h.HandleGetUserComplaints)
}

// HandleGetMe returns the caller's profile.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	user, err := h.users.GetUser(identity, identity.UserID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleUpdateMe updates the caller's phone and, from a multipart "avatar"
// part, their avatar.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req models.UpdateProfileRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	avatar, err := formFile(c, "avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid avatar upload",
			"error":   err.Error(),
		})
	}
	var avatarReader io.Reader
	if avatar != nil {
		defer avatar.Close()
		avatarReader = avatar
	}

	user, err := h.users.UpdateProfile(c.UserContext(), identity, req, avatarReader)
	if err != nil {
		return respondError(c, h.logger, "Could not update profile", err)
	}
	return c.JSON(user)
}

// HandleGetUserComplaints lists the complaints of a user, for that user or
// an admin.
func (h *UserHandler) HandleGetUserComplaints(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	complaints, err := h.complaints.ListByOwner(identity, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve complaints", err)
	}
	return c.JSON(complaints)
}
