package subscription

import (
	"time"

	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the aggregate root of the lifecycle engine. External
// modules may read it but mutate it only through the engine's operations.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// MemberID is the owning member (customer) in our system
	MemberID string `db:"member_id" json:"member_id"`

	// PlanID is the identifier for the plan in our system
	PlanID string `db:"plan_id" json:"plan_id"`

	// State is the lifecycle state of the subscription
	State types.SubscriptionState `db:"state" json:"state"`

	// Quantity is the number of units (seats) covered by the subscription
	Quantity decimal.Decimal `db:"quantity" json:"quantity"`

	// StartDate is when the subscription began
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is when the current paid period ends. Nil for lifetime plans,
	// which never carry milestone dates.
	EndDate *time.Time `db:"end_date" json:"end_date"`

	// PaidThroughDate is the last date for which payment has been received.
	// Equals EndDate while the subscription is active; lifecycle milestones
	// are offsets from this date.
	PaidThroughDate *time.Time `db:"paid_through_date" json:"paid_through_date"`

	// Lifetime subscriptions never expire and are excluded from renewal
	Lifetime bool `db:"lifetime" json:"lifetime"`

	// AutoRenew marks the subscription for automatic renewal confirmation
	AutoRenew bool `db:"auto_renew" json:"auto_renew"`

	// NextRenewalDate is when the renewal offer window opens
	NextRenewalDate *time.Time `db:"next_renewal_date" json:"next_renewal_date"`

	// PaymentRetryCount counts consecutive failed payment attempts
	PaymentRetryCount int `db:"payment_retry_count" json:"payment_retry_count"`

	// DunningLevel is the current escalation level for payment failures
	DunningLevel types.DunningLevel `db:"dunning_level" json:"dunning_level"`

	// NextRetryDate is when the next payment retry is due
	NextRetryDate *time.Time `db:"next_retry_date" json:"next_retry_date"`

	// LastPaymentError records the most recent gateway failure reason
	LastPaymentError string `db:"last_payment_error" json:"last_payment_error"`

	// Audit timestamps guarding scan idempotence: a scan only applies a
	// transition whose timestamp is still unset.
	GracePeriodStartDate *time.Time `db:"grace_period_start_date" json:"grace_period_start_date"`
	ActualSuspendDate    *time.Time `db:"actual_suspend_date" json:"actual_suspend_date"`
	ActualTerminateDate  *time.Time `db:"actual_terminate_date" json:"actual_terminate_date"`

	// SuspendedForNonPayment marks a suspension caused purely by dunning,
	// which a later successful payment may automatically lift
	SuspendedForNonPayment bool `db:"suspended_for_non_payment" json:"suspended_for_non_payment"`

	// Version supports optimistic concurrency on Save
	Version int `db:"version" json:"version"`

	types.BaseModel
}

func (s *Subscription) Validate() error {
	if err := s.State.Validate(); err != nil {
		return err
	}
	if err := s.DunningLevel.Validate(); err != nil {
		return err
	}
	if s.Lifetime {
		if s.EndDate != nil || s.PaidThroughDate != nil || s.NextRenewalDate != nil {
			return ierr.NewError("lifetime subscription cannot carry milestone dates").
				WithHintf("subscription %s is lifetime but has an end, paid-through or renewal date set", s.ID).
				Mark(ierr.ErrValidation)
		}
	} else if s.EndDate == nil && s.State != types.SubscriptionStateDraft && s.State != types.SubscriptionStateTrial {
		return ierr.NewError("missing end date").
			WithHintf("non-lifetime subscription %s in state %s requires an end date", s.ID, s.State).
			Mark(ierr.ErrValidation)
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return ierr.NewError("end date before start date").
			WithHintf("subscription %s ends %s before it starts %s",
				s.ID, s.EndDate.Format(time.DateOnly), s.StartDate.Format(time.DateOnly)).
			Mark(ierr.ErrValidation)
	}
	if s.PaymentRetryCount < 0 {
		return ierr.NewError("negative payment retry count").
			WithHintf("subscription %s has retry count %d", s.ID, s.PaymentRetryCount).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsInGoodStanding reports whether the subscription counts against the
// single-instance rule for its plan category.
func (s *Subscription) IsInGoodStanding() bool {
	return s.State == types.SubscriptionStateActive ||
		s.State == types.SubscriptionStateGrace ||
		s.State == types.SubscriptionStatePendingRenewal
}

// CanTransitionTo guards manual and scan-driven state changes. Terminal
// states are only left via explicit reactivation.
func (s *Subscription) CanTransitionTo(target types.SubscriptionState) bool {
	if s.State == target {
		return false
	}
	if s.State.IsTerminal() {
		// reactivation is the only way out of a terminal state
		return target == types.SubscriptionStateActive
	}
	switch target {
	case types.SubscriptionStateGrace:
		return s.State == types.SubscriptionStateActive || s.State == types.SubscriptionStatePendingRenewal
	case types.SubscriptionStateSuspended:
		return s.State == types.SubscriptionStateActive || s.State == types.SubscriptionStateGrace
	case types.SubscriptionStateTerminated, types.SubscriptionStateExpired:
		return s.State == types.SubscriptionStateSuspended || s.State == types.SubscriptionStateGrace
	case types.SubscriptionStateCancelled:
		return !s.State.IsTerminal()
	case types.SubscriptionStateActive:
		return true
	case types.SubscriptionStatePendingRenewal:
		return s.State == types.SubscriptionStateActive
	case types.SubscriptionStateTrial:
		return s.State == types.SubscriptionStateDraft
	default:
		return false
	}
}

// ClearDunning resets the dunning process after a successful payment or an
// explicit reactivation. Dunning state never resets any other way.
func (s *Subscription) ClearDunning() {
	s.PaymentRetryCount = 0
	s.DunningLevel = types.DunningLevelNone
	s.NextRetryDate = nil
	s.LastPaymentError = ""
	s.SuspendedForNonPayment = false
}

// ClearLifecycleAudit removes grace and suspension audit marks, typically on
// renewal or reactivation, so future scans may transition the record again.
func (s *Subscription) ClearLifecycleAudit() {
	s.GracePeriodStartDate = nil
	s.ActualSuspendDate = nil
	s.ActualTerminateDate = nil
}
