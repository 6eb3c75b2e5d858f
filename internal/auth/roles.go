package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	apperrors "github.com/spec-kit/restaurant-backoffice/pkg/util"
)

// RequireRole ensures the principal has one of the allowed roles. An empty
// allow list admits any authenticated caller.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// Supervisors is the role set that may reach every back-office screen.
var Supervisors = []domain.Role{domain.RoleAdmin, domain.RoleManager}
