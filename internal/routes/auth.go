package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/pos_trust/internal/auth"
)

// RegisterAuthRoutes wires the terminal-facing endpoints. Login is rate
// limited; verify and terminal/me require a bearer token.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, bearer fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/renew", h.Renew)
	group.Get("/verify", bearer, h.Verify)

	r.Get("/terminal/me", bearer, h.Me)
}
