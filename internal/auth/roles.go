package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// Role is the caller role carried in access tokens.
type Role string

const (
	// RoleOrganizer may run every contest command.
	RoleOrganizer Role = "organizer"
	// RoleViewer may only read.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RoleViewer
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...Role) fiber.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
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
