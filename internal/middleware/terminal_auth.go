package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/pos_trust/internal/auth"
	"github.com/congo-pay/pos_trust/internal/token"
)

// TokenVerifier checks a bearer token including terminal liveness.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*token.Claims, error)
}

// TerminalAuth validates terminal bearer tokens and stores the claims under
// auth.ClaimsLocal. Failures use the same body shape as login.
func TerminalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return auth.WriteError(c, &auth.Error{Code: auth.CodeTokenInvalid, Category: auth.CategoryToken, Reason: "missing bearer token"})
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := verifier.Verify(c.UserContext(), tokenStr)
		if err != nil {
			return auth.WriteError(c, err)
		}

		c.Locals(auth.ClaimsLocal, claims)
		c.Locals("terminal_id", claims.TerminalID)
		return c.Next()
	}
}
