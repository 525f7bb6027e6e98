package middleware

import (
	"lms/permissions"

	"github.com/gofiber/fiber/v2"
)

// RequirePermission returns a middleware that checks the caller's role
// against the static permission table. Unknown roles and actions are denied.
func RequirePermission(action permissions.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Role is set by JWTMiddleware from the token claims
		role, ok := c.Locals("role").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "Unauthorized: Role not found",
				"data":    nil,
			})
		}

		if !permissions.Evaluate(role, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  false,
				"message": "You do not have permission to access this resource!",
				"data":    nil,
			})
		}

		return c.Next()
	}
}
