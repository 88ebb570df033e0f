package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/domain"
	apperrors "github.com/estatepro/leadsync/pkg/util"
)

// RequireStaffRole ensures the session's actor has one of the allowed roles.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		ws, ok := WorkspaceFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing session")
		}
		actor, ok := ws.Session.Actor(c.UserContext())
		if !ok {
			return apperrors.NewUnauthorized("session token invalid or expired")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[actor.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireActor ensures the session carries a valid token.
func RequireActor() fiber.Handler {
	return RequireStaffRole()
}
