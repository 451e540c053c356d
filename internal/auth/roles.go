package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/lifecycle"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// RequireTechnician ensures the caller currently belongs to the technician group.
func RequireTechnician(policy lifecycle.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !policy.IsTechnician(identity) {
			return apperrors.NewForbidden("technician group membership required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures an identity was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
