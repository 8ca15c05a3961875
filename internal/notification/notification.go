package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindDeviceMismatch flags a login from hardware other than the bound device.
	KindDeviceMismatch = "terminal_device_mismatch"
	// KindLocationRejected flags a login outside the terminal's geofence.
	KindLocationRejected = "terminal_location_rejected"
)

// Message describes a fraud-triage notification. Body must never carry
// credentials.
type Message struct {
	Kind       string
	TerminalID string
	HardwareID string
	Body       string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger until a real
// security channel is wired in.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.WarnContext(ctx, "security.notification",
		slog.String("kind", message.Kind),
		slog.String("terminal_id", message.TerminalID),
		slog.String("hardware_id", message.HardwareID),
		slog.String("body", message.Body),
	)
	return nil
}

// Recorder keeps messages in memory. Tests use it to assert on alerts.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send appends the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
