package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAPIKeyAuth validates the admin API key. When no key is configured
// every request passes.
// Expects: Authorization: Bearer <api_key>
func AdminAPIKeyAuth(storedKey string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if storedKey == "" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		// Extract Bearer token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid Authorization header format. Expected: Bearer <api_key>")
		}

		providedKey := strings.TrimPrefix(authHeader, "Bearer ")
		if providedKey == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "API key is empty")
		}

		// Constant-time comparison to prevent timing attacks
		if !secureCompare(providedKey, storedKey) {
			logger.Warn("Rejected admin request", slog.String("path", c.Path()), slog.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid API key")
		}

		return c.Next()
	}
}

// secureCompare performs constant-time string comparison
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}
	return result == 0
}
