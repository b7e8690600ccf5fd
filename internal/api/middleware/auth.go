package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

// HeaderAPIKey carries the administrator key.
const HeaderAPIKey = "X-API-Key"

// APIKey admits requests whose X-API-Key header, Bearer token or api_key
// query parameter equals key. The query parameter exists for websocket
// clients, which cannot set headers.
func APIKey(key string) fiber.Handler {
	expected := []byte(key)

	return func(c *fiber.Ctx) error {
		provided := extractAPIKey(c)
		if provided == "" || len(expected) == 0 {
			return domain.ErrUnauthorized
		}
		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			return domain.ErrUnauthorized
		}
		return c.Next()
	}
}

func extractAPIKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get(HeaderAPIKey)); key != "" {
		return key
	}
	if token := extractBearerToken(c); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("api_key"))
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
