package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/utils"
)

// RequireRoles lets the request through only when the session role is
// one of the allowed marketplace roles. Accounts that have not picked a
// role yet are rejected here.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := make(map[models.Role]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*utils.SessionClaims)
		if !ok || claims == nil {
			return fiber.ErrUnauthorized
		}

		if !allowedSet[claims.Role] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}

		return c.Next()
	}
}
