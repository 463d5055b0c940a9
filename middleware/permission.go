package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// RequireRole returns a middleware that lets through callers holding one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: role not found", nil)
		}
		if !allowed[role] {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}

// IsStaff reports whether the caller grades rather than takes quizzes.
func IsStaff(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == RoleInstructor || role == RoleAdmin
}
