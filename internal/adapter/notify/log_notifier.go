package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"carrier-rewards/internal/core/port"
)

// LogNotifier implements port.Notifier by writing messages to the structured
// log. It stands in for a real messaging transport; handles are fresh UUIDs
// so edit flows can still be exercised end to end.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a new notifier instance.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message and returns a handle for later edits.
func (n *LogNotifier) Send(_ context.Context, userID, text string) (port.MessageHandle, error) {
	handle := port.MessageHandle(uuid.NewString())
	n.logger.Info("notify",
		slog.String("user_id", userID),
		slog.String("handle", string(handle)),
		slog.String("text", text))
	return handle, nil
}

// Edit logs the replacement text against the original handle.
func (n *LogNotifier) Edit(_ context.Context, userID string, handle port.MessageHandle, text string) error {
	n.logger.Info("notify edit",
		slog.String("user_id", userID),
		slog.String("handle", string(handle)),
		slog.String("text", text))
	return nil
}
