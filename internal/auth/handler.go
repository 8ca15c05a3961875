package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/pos_trust/internal/audit"
	"github.com/congo-pay/pos_trust/internal/terminal"
	"github.com/congo-pay/pos_trust/internal/token"
)

// ClaimsLocal is the fiber locals key the bearer middleware stores verified
// claims under.
const ClaimsLocal = "terminal_claims"

// Handler exposes the terminal-facing auth endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginResponse struct {
	Success      bool         `json:"success"`
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	TerminalInfo TerminalInfo `json:"terminalInfo"`
}

type renewResponse struct {
	Success   bool      `json:"success"`
	NewToken  string    `json:"newToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type failureResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode Code   `json:"errorCode"`
}

// Login authenticates a terminal and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return WriteError(c, h.svc.RejectMalformed(c.UserContext(), audit.ActionLogin, RawTerminalID(c.Body())))
	}
	res, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(http.StatusOK).JSON(loginResponse{
		Success:      true,
		Token:        res.Token,
		ExpiresAt:    res.ExpiresAt,
		TerminalInfo: res.Terminal,
	})
}

// Renew exchanges a valid token for a fresh one.
func (h *Handler) Renew(c *fiber.Ctx) error {
	var req RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return WriteError(c, h.svc.RejectMalformed(c.UserContext(), audit.ActionRenew, ""))
	}
	res, err := h.svc.Renew(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(http.StatusOK).JSON(renewResponse{Success: true, NewToken: res.Token, ExpiresAt: res.ExpiresAt})
}

// RawTerminalID salvages a terminalId string from a body that failed to
// decode into a request. It returns "" when none can be found.
func RawTerminalID(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(fields["terminalId"], &id); err != nil {
		return ""
	}
	return id
}

// Verify echoes the claims the bearer middleware accepted.
func (h *Handler) Verify(c *fiber.Ctx) error {
	claims, ok := c.Locals(ClaimsLocal).(*token.Claims)
	if !ok {
		return WriteError(c, tokenError(CodeTokenInvalid))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"terminalId":   claims.TerminalID,
		"businessName": claims.BusinessName,
		"deviceType":   claims.DeviceType,
		"permissions":  claims.Permissions,
		"issuedAt":     claims.IssuedAt.Time,
		"expiresAt":    claims.ExpiresAt.Time,
	})
}

// Me returns the current summary of the calling terminal.
func (h *Handler) Me(c *fiber.Ctx) error {
	claims, ok := c.Locals(ClaimsLocal).(*token.Claims)
	if !ok {
		return WriteError(c, tokenError(CodeTokenInvalid))
	}
	info, err := h.svc.Terminal(c.UserContext(), claims.TerminalID)
	if err != nil {
		return WriteError(c, internalError(err))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "terminalInfo": info})
}

// WriteError renders err in the public failure shape. Non-*Error values are
// reported as InternalError without detail.
func WriteError(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = internalError(err)
	}
	return c.Status(e.HTTPStatus()).JSON(failureResponse{
		Success:   false,
		Error:     e.PublicMessage(),
		ErrorCode: e.PublicCode(),
	})
}

// AdminHandler exposes terminal lifecycle operations to operators.
type AdminHandler struct {
	svc *Service
}

func NewAdminHandler(svc *Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Deactivate(c *fiber.Ctx) error { return h.setActive(c, false) }

func (h *AdminHandler) Activate(c *fiber.Ctx) error { return h.setActive(c, true) }

func (h *AdminHandler) setActive(c *fiber.Ctx, active bool) error {
	id := c.Params("id")
	err := h.svc.SetActive(c.UserContext(), id, active)
	if errors.Is(err, terminal.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "terminal not found")
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "update failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"terminalId": id, "active": active})
}

// RevokeTokens rejects every token issued to the terminal so far.
func (h *AdminHandler) RevokeTokens(c *fiber.Ctx) error {
	id := c.Params("id")
	cutoff, err := h.svc.RevokeTokens(c.UserContext(), id)
	switch {
	case errors.Is(err, ErrRevocationDisabled):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, terminal.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "terminal not found")
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, "revocation failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"terminalId": id, "revokedIssuedUpTo": cutoff})
}

// Attempts lists recent audit records for a terminal.
func (h *AdminHandler) Attempts(c *fiber.Ctx) error {
	id := c.Params("id")
	attempts, err := h.svc.Attempts(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "listing failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"terminalId": id, "attempts": attempts})
}
