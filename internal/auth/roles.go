package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskboard/internal/domain"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// RequireUser ensures a user is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the user carries at least one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range allowed {
			if user.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewPermissionDenied("insufficient role", nil)
	}
}
