package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kaamsetu/kaamsetu-api/internal/utils"
)

// CookieName is the session cookie carrying the signed JWT.
const CookieName = "ks_token"

// JWTFromCookie validates the session cookie and stores the parsed
// claims in locals for the rest of the chain.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseSession(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
