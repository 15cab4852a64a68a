package subscription

import (
	"time"

	"github.com/openams/openams/internal/types"
)

// LifecycleEvent is one immutable history entry emitted on a state
// transition. Events replace inherited audit behavior on the record type:
// the engine emits them explicitly and a separate component consumes them.
type LifecycleEvent struct {
	ID             string                   `db:"id" json:"id"`
	SubscriptionID string                   `db:"subscription_id" json:"subscription_id"`
	Type           types.LifecycleEventType `db:"type" json:"type"`
	At             time.Time                `db:"at" json:"at"`
	Detail         string                   `db:"detail" json:"detail"`
}

// NewLifecycleEvent builds an event with a fresh prefixed identifier
func NewLifecycleEvent(subscriptionID string, eventType types.LifecycleEventType, at time.Time, detail string) *LifecycleEvent {
	return &LifecycleEvent{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LIFECYCLE_EVENT),
		SubscriptionID: subscriptionID,
		Type:           eventType,
		At:             at,
		Detail:         detail,
	}
}
