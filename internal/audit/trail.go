package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/congo-pay/pos_trust/internal/clock"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxFieldLen      = 128
)

// Trail is the only producer of Attempt records.
type Trail struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewTrail builds a Trail writing to store.
func NewTrail(store Store, clk clock.Clock, logger *slog.Logger) *Trail {
	if clk == nil {
		clk = clock.System{}
	}
	return &Trail{store: store, clock: clk, logger: logger}
}

// Record stamps and appends an attempt. Raw caller input is truncated so a
// hostile request cannot bloat the log.
func (t *Trail) Record(ctx context.Context, attempt Attempt) (Attempt, error) {
	attempt.ID = uuid.NewString()
	attempt.OccurredAt = t.clock.Now()
	attempt.TerminalID = truncate(attempt.TerminalID)
	attempt.HardwareID = truncate(attempt.HardwareID)
	if attempt.RequestID == "" {
		attempt.RequestID = RequestIDFrom(ctx)
	}

	if err := t.store.Append(ctx, attempt); err != nil {
		return attempt, fmt.Errorf("append audit attempt: %w", err)
	}

	if t.logger != nil {
		level := slog.LevelInfo
		if !attempt.Success() {
			level = slog.LevelWarn
		}
		t.logger.LogAttrs(ctx, level, "auth.attempt",
			slog.String("attempt_id", attempt.ID),
			slog.String("action", string(attempt.Action)),
			slog.String("terminal_id", attempt.TerminalID),
			slog.String("hardware_id", attempt.HardwareID),
			slog.String("outcome", attempt.Outcome),
			slog.String("reason", attempt.Reason),
			slog.String("request_id", attempt.RequestID),
		)
	}
	return attempt, nil
}

// ListByTerminal returns the newest attempts for terminalID first.
func (t *Trail) ListByTerminal(ctx context.Context, terminalID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return t.store.ListByTerminal(ctx, terminalID, limit)
}

// truncate caps s at maxFieldLen bytes without splitting a rune, so the
// result is always valid UTF-8 for the text columns it lands in.
func truncate(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= maxFieldLen {
		return s
	}
	n := maxFieldLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
