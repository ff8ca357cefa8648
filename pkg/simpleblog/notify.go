package simpleblog

import (
	"context"
	"log/slog"
)

// Notifier receives advisory notifications after a mutation commits. Calls
// are fire-and-forget: the resource swallows any returned error and never
// blocks a response on delivery.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, entity, id string) error
}

// NoopNotifier is a no-operation implementation of Notifier
// Useful when no collaborator consumes mutation notifications or for testing
type NoopNotifier struct{}

// NewNoopNotifier creates a new no-operation notifier
func NewNoopNotifier() Notifier {
	return &NoopNotifier{}
}

// Notify does nothing and returns nil
func (n *NoopNotifier) Notify(ctx context.Context, kind NotificationKind, entity, id string) error {
	return nil
}

// LogNotifier is a Notifier that records mutations through slog.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to the given logger. A nil logger
// falls back to slog.Default.
func NewLogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, kind NotificationKind, entity, id string) error {
	n.logger.InfoContext(ctx, "Entity mutation", "kind", string(kind), "entity", entity, "id", id)
	return nil
}
