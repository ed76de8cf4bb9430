package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// AdminChecker reports whether a user may use the admin surface.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// AdminAuth gates admin routes. Must run after Auth.
func AdminAuth(checker AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == 0 || !checker.IsAdmin(userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}
