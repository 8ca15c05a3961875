package registration

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/pos_trust/internal/terminal"
)

// Handler exposes the admin registration endpoint.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register creates a terminal and returns the one-time access key.
func (h *Handler) Register(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON body")
	}
	res, err := h.svc.Register(c.UserContext(), in)
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, terminal.ErrDuplicateID):
		return fiber.NewError(http.StatusConflict, "terminal id collision, retry registration")
	case err != nil:
		if h.logger != nil {
			h.logger.ErrorContext(c.UserContext(), "terminal.register failed", slog.String("error", err.Error()))
		}
		return fiber.NewError(http.StatusInternalServerError, "registration failed")
	}
	if h.logger != nil {
		h.logger.InfoContext(c.UserContext(), "terminal.register completed",
			slog.String("terminal_id", res.TerminalID),
			slog.String("device_type", string(res.Onboarding.DeviceType)),
			slog.Int("status", http.StatusCreated),
		)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(http.StatusCreated).JSON(res)
}
