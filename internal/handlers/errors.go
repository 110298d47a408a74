package handlers

import (
	"errors"
	"io"
	"strings"

	"denuncias/internal/models"
	"denuncias/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the {"message","error"} body for err. Internal errors
// are logged and their details withheld from the client.
func respondError(c *fiber.Ctx, logger *zap.Logger, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error(message, zap.Error(err), zap.String("path", c.Path()), zap.String("method", c.Method()))
		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// parseAndValidate binds the request body into dst and runs the validator.
// It writes the 400 response itself and returns false on failure.
func parseAndValidate(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validation.FieldErrors(err),
		})
	}
	return true, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formFile opens the named file part. It returns a nil reader when the part
// is absent.
func formFile(c *fiber.Ctx, field string) (io.ReadCloser, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return header.Open()
}

// ErrorHandler renders errors that escape the handlers as JSON.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"message": fe.Message,
			})
		}
		logger.Error("unhandled error", zap.Error(err), zap.String("path", c.Path()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}
