package testutil

import (
	"context"
	"sync"

	"github.com/openams/openams/internal/types"
)

// CapturedNotification is one dispatched notification recorded for assertions
type CapturedNotification struct {
	SubscriptionID string
	EventType      types.LifecycleEventType
	Detail         string
}

// CaptureDispatcher records notifications instead of delivering them.
type CaptureDispatcher struct {
	mu            sync.Mutex
	notifications []CapturedNotification
}

func NewCaptureDispatcher() *CaptureDispatcher {
	return &CaptureDispatcher{}
}

func (d *CaptureDispatcher) Notify(ctx context.Context, subscriptionID string, eventType types.LifecycleEventType, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, CapturedNotification{
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		Detail:         detail,
	})
}

// Notifications returns a snapshot of everything dispatched so far
func (d *CaptureDispatcher) Notifications() []CapturedNotification {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]CapturedNotification, len(d.notifications))
	copy(result, d.notifications)
	return result
}

// OfType filters captured notifications by event type
func (d *CaptureDispatcher) OfType(eventType types.LifecycleEventType) []CapturedNotification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []CapturedNotification
	for _, n := range d.notifications {
		if n.EventType == eventType {
			result = append(result, n)
		}
	}
	return result
}
