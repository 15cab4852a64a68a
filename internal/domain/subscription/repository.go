package subscription

import (
	"context"
	"time"

	"github.com/openams/openams/internal/types"
)

// Repository is the generic record store the engine depends on. Save must be
// optimistic-concurrency aware: it rejects a write whose Version does not
// match the stored record with ierr.ErrVersionConflict.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Save(ctx context.Context, sub *Subscription) error
	List(ctx context.Context, filter *Filter) ([]*Subscription, error)

	// QueryDueFor returns the subscriptions eligible for the given scan as
	// of the given date. Eligibility mirrors the scan semantics: records
	// already carrying the scan's audit timestamp are excluded.
	QueryDueFor(ctx context.Context, scanType types.ScanType, asOf time.Time) ([]*Subscription, error)

	// CountInGoodStanding counts active-or-grace subscriptions a member
	// holds for plans of the given category; used for the single-instance rule.
	CountInGoodStanding(ctx context.Context, memberID string, category types.PlanCategory) (int, error)
}

// Filter narrows List queries
type Filter struct {
	MemberID string
	PlanID   string
	States   []types.SubscriptionState
}

// EventRepository stores the immutable lifecycle history of subscriptions
type EventRepository interface {
	Append(ctx context.Context, event *LifecycleEvent) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*LifecycleEvent, error)
}
