package notification

import (
	"context"

	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/types"
)

// Dispatcher receives lifecycle transitions for delivery to members and
// staff. Delivery is best effort and asynchronous: a failed or slow channel
// never blocks or fails the state transition that triggered it.
type Dispatcher interface {
	Notify(ctx context.Context, subscriptionID string, eventType types.LifecycleEventType, detail string)
}

// logDispatcher writes notifications to the structured log. It stands in for
// the external messaging collaborators (mail, webhooks) that consume the
// lifecycle event stream in a full deployment.
type logDispatcher struct {
	logger *logger.Logger
}

func NewLogDispatcher(logger *logger.Logger) Dispatcher {
	return &logDispatcher{logger: logger}
}

func (d *logDispatcher) Notify(ctx context.Context, subscriptionID string, eventType types.LifecycleEventType, detail string) {
	go d.logger.Infow("lifecycle notification",
		"subscription_id", subscriptionID,
		"event_type", eventType.String(),
		"detail", detail,
	)
}

// NoopDispatcher discards notifications; used in tests that do not assert on
// notification behavior.
type NoopDispatcher struct{}

func (NoopDispatcher) Notify(ctx context.Context, subscriptionID string, eventType types.LifecycleEventType, detail string) {
}
