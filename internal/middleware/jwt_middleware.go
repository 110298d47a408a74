package middleware

import (
	"errors"
	"strings"

	"denuncias/internal/access"
	"denuncias/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// IdentityResolver verifies bearer tokens and reloads the caller from the
// user store.
type IdentityResolver interface {
	ValidateToken(token string) (access.Identity, error)
	ResolveIdentity(identity access.Identity) (access.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// The resolved identity is stored in the request locals.
func AuthRequired(resolver IdentityResolver, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := resolver.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("jwt validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		identity, err = resolver.ResolveIdentity(identity)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Invalid or expired token",
					"error":   err.Error(),
				})
			}
			logger.Error("failed to resolve identity", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to authenticate request",
			})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireRole rejects callers whose resolved role differs from role.
// It must run after AuthRequired.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		if d := access.RequireRole(identity, role); !d.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
				"error":   d.Reason,
			})
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired.
func IdentityFrom(c *fiber.Ctx) (access.Identity, bool) {
	identity, ok := c.Locals(identityKey).(access.Identity)
	return identity, ok && identity.UserID != ""
}
