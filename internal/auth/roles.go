package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RequireRole ensures the caller has one of the allowed roles.
func RequireRole(resource string, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity := IdentityFromContext(c)
		if !identity.IsAuthenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("access", resource)
		}
		return c.Next()
	}
}

// RequireStaff ensures the caller is a technician or an admin.
func RequireStaff(resource string) fiber.Handler {
	return RequireRole(resource, domain.RoleTechnician, domain.RoleAdmin)
}
