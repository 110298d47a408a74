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

// ComplaintHandler handles HTTP requests for complaints.
type ComplaintHandler struct {
	service  *services.ComplaintService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewComplaintHandler creates a new ComplaintHandler.
func NewComplaintHandler(service *services.ComplaintService, validate *validator.Validate, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// RegisterPublicRoutes registers the routes that need no token.
func (h *ComplaintHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/complaints/map", h.HandleMap)
}

// RegisterRoutes registers the complaint routes on an authenticated router.
func (h *ComplaintHandler) RegisterRoutes(router fiber.Router) {
	complaintRoutes := router.Group("/complaints")
	complaintRoutes.Post("/", h.HandleCreateComplaint)
	complaintRoutes.Get("/", middleware.RequireRole(models.RoleAdmin), h.HandleGetComplaints)
	complaintRoutes.Get("/mine", h.HandleGetMyComplaints)
	complaintRoutes.Get("/:id", h.HandleGetComplaintByID)
	complaintRoutes.Patch("/:id", h.HandleUpdateComplaint)
	complaintRoutes.Put("/:id/photo", h.HandleReplacePhoto)
	complaintRoutes.Delete("/:id", h.HandleDeleteComplaint)
}

// HandleMap returns the coordinates of every geolocated complaint.
func (h *ComplaintHandler) HandleMap(c *fiber.Ctx) error {
	locations, err := h.service.Locations()
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve complaint locations", err)
	}
	return c.JSON(locations)
}

// HandleCreateComplaint creates a complaint from a JSON body or a multipart
// form with an optional "photo" part.
func (h *ComplaintHandler) HandleCreateComplaint(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var req models.CreateComplaintRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	photo, err := formFile(c, "photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid photo upload",
			"error":   err.Error(),
		})
	}
	var photoReader io.Reader
	if photo != nil {
		defer photo.Close()
		photoReader = photo
	}

	complaint, err := h.service.CreateComplaint(c.UserContext(), identity, req, photoReader)
	if err != nil {
		return respondError(c, h.logger, "Could not create complaint", err)
	}
	return c.Status(fiber.StatusCreated).JSON(complaint)
}

// HandleGetComplaints returns every complaint. Admin only.
func (h *ComplaintHandler) HandleGetComplaints(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	complaints, err := h.service.ListAll(identity)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve complaints", err)
	}
	return c.JSON(complaints)
}

// HandleGetMyComplaints returns the caller's complaints.
func (h *ComplaintHandler) HandleGetMyComplaints(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	complaints, err := h.service.ListByOwner(identity, identity.UserID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve complaints", err)
	}
	return c.JSON(complaints)
}

// HandleGetComplaintByID retrieves a single complaint by its ID.
func (h *ComplaintHandler) HandleGetComplaintByID(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	complaint, err := h.service.GetComplaint(identity, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve complaint", err)
	}
	return c.JSON(complaint)
}

// HandleUpdateComplaint applies a partial update.
func (h *ComplaintHandler) HandleUpdateComplaint(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	var patch models.ComplaintPatch
	if ok, err := parseAndValidate(c, h.validate, &patch); !ok {
		return err
	}

	complaint, err := h.service.UpdateComplaint(identity, c.Params("id"), patch)
	if err != nil {
		return respondError(c, h.logger, "Could not update complaint", err)
	}
	return c.JSON(complaint)
}

// HandleReplacePhoto swaps the complaint photo for the uploaded "photo" part.
func (h *ComplaintHandler) HandleReplacePhoto(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)

	photo, err := formFile(c, "photo")
	if err != nil || photo == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A multipart \"photo\" file is required",
		})
	}
	defer photo.Close()

	complaint, err := h.service.ReplacePhoto(c.UserContext(), identity, c.Params("id"), photo)
	if err != nil {
		return respondError(c, h.logger, "Could not replace photo", err)
	}
	return c.JSON(complaint)
}

// HandleDeleteComplaint deletes a complaint.
func (h *ComplaintHandler) HandleDeleteComplaint(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	if err := h.service.DeleteComplaint(c.UserContext(), identity, c.Params("id")); err != nil {
		return respondError(c, h.logger, "Could not delete complaint", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
