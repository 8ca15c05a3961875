package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// AdminKeyHeader carries the operator API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards operator routes with a shared key compared in constant
// time. Terminal bearer tokens are never accepted here. An empty configured
// key rejects every request.
func AdminKey(key string) fiber.Handler {
	expected := []byte(key)
	return func(c *fiber.Ctx) error {
		presented := []byte(c.Get(AdminKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(presented, expected) != 1 {
			return fiber.NewError(http.StatusUnauthorized, "admin authentication required")
		}
		return c.Next()
	}
}
