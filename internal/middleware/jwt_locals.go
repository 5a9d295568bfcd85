package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kaamsetu/kaamsetu-api/internal/utils"
)

// AttachJWTLocals unpacks the session claims into userId/role locals so
// handlers never touch the claims type directly.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*utils.SessionClaims)
		if !ok || claims == nil {
			return fiber.ErrUnauthorized
		}

		uid, err := claims.UserID()
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}
