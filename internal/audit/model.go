package audit

import (
	"context"
	"time"
)

// Action is the operation an attempt belongs to.
type Action string

const (
	ActionLogin Action = "login"
	ActionRenew Action = "renew"
)

// OutcomeSuccess marks a granted attempt. Failures carry their error code.
const OutcomeSuccess = "Success"

// Attempt is one append-only authentication decision.
type Attempt struct {
	ID         string    `json:"id"`
	Action     Action    `json:"action"`
	TerminalID string    `json:"terminalId"`
	HardwareID string    `json:"hardwareId,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Success reports whether the attempt was granted.
func (a Attempt) Success() bool { return a.Outcome == OutcomeSuccess }

// Store persists attempts. Implementations must never update or delete.
type Store interface {
	Append(ctx context.Context, attempt Attempt) error
	ListByTerminal(ctx context.Context, terminalID string, limit int) ([]Attempt, error)
}

type requestIDKey struct{}

// WithRequestID tags ctx so recorded attempts can be correlated with access logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
