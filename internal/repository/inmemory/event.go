package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/openams/openams/internal/domain/subscription"
	ierr "github.com/openams/openams/internal/errors"
)

// LifecycleEventStore implements subscription.EventRepository.
type LifecycleEventStore struct {
	mu     sync.RWMutex
	events []*subscription.LifecycleEvent
}

func NewLifecycleEventStore() *LifecycleEventStore {
	return &LifecycleEventStore{}
}

func (s *LifecycleEventStore) Append(ctx context.Context, event *subscription.LifecycleEvent) error {
	if event == nil {
		return ierr.NewError("event cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *event
	s.events = append(s.events, &clone)
	return nil
}

func (s *LifecycleEventStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.LifecycleEvent
	for _, event := range s.events {
		if event.SubscriptionID == subscriptionID {
			clone := *event
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].At.Before(result[j].At)
	})
	return result, nil
}
