package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/domain/subscription"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/samber/lo"
)

// SubscriptionStore implements subscription.Repository over a map. Save
// enforces the same optimistic concurrency contract a database-backed
// implementation would: a stale Version is rejected with ErrVersionConflict.
type SubscriptionStore struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription.Subscription
	planRepo      plan.Repository
}

func NewSubscriptionStore(planRepo plan.Repository) *SubscriptionStore {
	return &SubscriptionStore{
		subscriptions: make(map[string]*subscription.Subscription),
		planRepo:      planRepo,
	}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return ierr.NewError("subscription already exists").
			WithHintf("subscription %s already exists", sub.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	sub.Version = 1
	s.subscriptions[sub.ID] = copySubscription(sub)
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subscriptions[id]
	if !exists {
		return nil, ierr.NewError("subscription not found").
			WithHintf("subscription %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *SubscriptionStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.subscriptions[sub.ID]
	if !exists {
		return ierr.NewError("subscription not found").
			WithHintf("subscription %s does not exist", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != sub.Version {
		return ierr.NewError("version conflict").
			WithHintf("subscription %s was modified concurrently (stored version %d, submitted %d)",
				sub.ID, stored.Version, sub.Version).
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	sub.UpdatedAt = time.Now().UTC()
	s.subscriptions[sub.ID] = copySubscription(sub)
	return nil
}

func (s *SubscriptionStore) List(ctx context.Context, filter *subscription.Filter) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.subscriptions {
		if filter != nil {
			if filter.MemberID != "" && sub.MemberID != filter.MemberID {
				continue
			}
			if filter.PlanID != "" && sub.PlanID != filter.PlanID {
				continue
			}
			if len(filter.States) > 0 && !lo.Contains(filter.States, sub.State) {
				continue
			}
		}
		result = append(result, copySubscription(sub))
	}
	return result, nil
}

func (s *SubscriptionStore) QueryDueFor(ctx context.Context, scanType types.ScanType, asOf time.Time) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.subscriptions {
		if dueFor(sub, scanType, asOf) {
			result = append(result, copySubscription(sub))
		}
	}
	return result, nil
}

// dueFor is a coarse eligibility filter; the scan itself re-derives the
// precise decision from the lifecycle calculation.
func dueFor(sub *subscription.Subscription, scanType types.ScanType, asOf time.Time) bool {
	switch scanType {
	case types.ScanTypeGrace:
		return (sub.State == types.SubscriptionStateActive || sub.State == types.SubscriptionStatePendingRenewal) &&
			sub.PaidThroughDate != nil &&
			asOf.After(*sub.PaidThroughDate) &&
			sub.GracePeriodStartDate == nil
	case types.ScanTypeSuspension:
		return sub.State == types.SubscriptionStateGrace &&
			sub.PaidThroughDate != nil &&
			sub.ActualSuspendDate == nil
	case types.ScanTypeTermination:
		return sub.State == types.SubscriptionStateSuspended &&
			sub.PaidThroughDate != nil &&
			sub.ActualTerminateDate == nil
	case types.ScanTypeRenewal:
		return !sub.Lifetime &&
			!sub.State.IsTerminal() &&
			sub.State != types.SubscriptionStateDraft &&
			sub.PaidThroughDate != nil
	case types.ScanTypeDunningRetry:
		return sub.NextRetryDate != nil &&
			!sub.NextRetryDate.After(asOf) &&
			!sub.State.IsTerminal()
	default:
		return false
	}
}

func (s *SubscriptionStore) CountInGoodStanding(ctx context.Context, memberID string, category types.PlanCategory) (int, error) {
	s.mu.RLock()
	candidates := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.MemberID == memberID && sub.IsInGoodStanding() {
			candidates = append(candidates, copySubscription(sub))
		}
	}
	s.mu.RUnlock()

	count := 0
	for _, sub := range candidates {
		p, err := s.planRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return 0, err
		}
		if p.Category == category {
			count++
		}
	}
	return count, nil
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	clone := *sub
	clone.EndDate = copyTime(sub.EndDate)
	clone.PaidThroughDate = copyTime(sub.PaidThroughDate)
	clone.NextRenewalDate = copyTime(sub.NextRenewalDate)
	clone.NextRetryDate = copyTime(sub.NextRetryDate)
	clone.GracePeriodStartDate = copyTime(sub.GracePeriodStartDate)
	clone.ActualSuspendDate = copyTime(sub.ActualSuspendDate)
	clone.ActualTerminateDate = copyTime(sub.ActualTerminateDate)
	return &clone
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
