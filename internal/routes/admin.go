package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/pos_trust/internal/auth"
	"github.com/congo-pay/pos_trust/internal/registration"
)

// AdminHandlers groups the operator endpoints.
type AdminHandlers struct {
	Registration *registration.Handler
	Lifecycle    *auth.AdminHandler
	Idempotency  fiber.Handler
}

// RegisterAdminRoutes wires operator endpoints on an already authenticated
// router. Registration is deliberately outside the idempotency cache since
// its response holds the one-time access key.
func RegisterAdminRoutes(r fiber.Router, h AdminHandlers) {
	r.Post("/terminals", h.Registration.Register)

	lifecycle := r.Group("/terminals/:id")
	lifecycle.Post("/deactivate", h.Idempotency, h.Lifecycle.Deactivate)
	lifecycle.Post("/activate", h.Idempotency, h.Lifecycle.Activate)
	lifecycle.Post("/revoke-tokens", h.Idempotency, h.Lifecycle.RevokeTokens)
	lifecycle.Get("/attempts", h.Lifecycle.Attempts)
}
