package types

import (
	ierr "github.com/openams/openams/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionState is the lifecycle state of a membership subscription
type SubscriptionState string

const (
	SubscriptionStateDraft          SubscriptionState = "draft"
	SubscriptionStateTrial          SubscriptionState = "trial"
	SubscriptionStateActive         SubscriptionState = "active"
	SubscriptionStateGrace          SubscriptionState = "grace"
	SubscriptionStateSuspended      SubscriptionState = "suspended"
	SubscriptionStateCancelled      SubscriptionState = "cancelled"
	SubscriptionStateExpired        SubscriptionState = "expired"
	SubscriptionStatePendingRenewal SubscriptionState = "pending_renewal"
	SubscriptionStateTerminated     SubscriptionState = "terminated"
)

func (s SubscriptionState) String() string {
	return string(s)
}

// IsTerminal reports whether the state can only be left via explicit reactivation
func (s SubscriptionState) IsTerminal() bool {
	return s == SubscriptionStateCancelled ||
		s == SubscriptionStateExpired ||
		s == SubscriptionStateTerminated
}

func (s SubscriptionState) Validate() error {
	allowed := []SubscriptionState{
		SubscriptionStateDraft,
		SubscriptionStateTrial,
		SubscriptionStateActive,
		SubscriptionStateGrace,
		SubscriptionStateSuspended,
		SubscriptionStateCancelled,
		SubscriptionStateExpired,
		SubscriptionStatePendingRenewal,
		SubscriptionStateTerminated,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription state").
			WithHint("Invalid subscription state").
			WithReportableDetails(map[string]any{
				"state":          s,
				"allowed_states": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DunningLevel is the escalation level of the payment-failure dunning process
type DunningLevel string

const (
	DunningLevelNone  DunningLevel = "none"
	DunningLevelSoft  DunningLevel = "soft"
	DunningLevelHard  DunningLevel = "hard"
	DunningLevelFinal DunningLevel = "final"
)

func (d DunningLevel) String() string {
	return string(d)
}

// Rank orders dunning levels for the monotonicity invariant: the level
// never decreases while failures accumulate without an intervening success.
func (d DunningLevel) Rank() int {
	switch d {
	case DunningLevelSoft:
		return 1
	case DunningLevelHard:
		return 2
	case DunningLevelFinal:
		return 3
	default:
		return 0
	}
}

func (d DunningLevel) Validate() error {
	allowed := []DunningLevel{
		DunningLevelNone,
		DunningLevelSoft,
		DunningLevelHard,
		DunningLevelFinal,
	}
	if !lo.Contains(allowed, d) {
		return ierr.NewError("invalid dunning level").
			WithHint("Invalid dunning level").
			WithReportableDetails(map[string]any{
				"level":          d,
				"allowed_levels": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ScanType identifies one of the periodic batch scans over the subscription set
type ScanType string

const (
	ScanTypeGrace        ScanType = "grace"
	ScanTypeSuspension   ScanType = "suspension"
	ScanTypeTermination  ScanType = "termination"
	ScanTypeRenewal      ScanType = "renewal"
	ScanTypeDunningRetry ScanType = "dunning_retry"
)

func (s ScanType) String() string {
	return string(s)
}

func (s ScanType) Validate() error {
	allowed := []ScanType{
		ScanTypeGrace,
		ScanTypeSuspension,
		ScanTypeTermination,
		ScanTypeRenewal,
		ScanTypeDunningRetry,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid scan type").
			WithHint("Invalid scan type").
			WithReportableDetails(map[string]any{
				"scan_type":     s,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LifecycleEventType labels an immutable audit event emitted on a state transition
type LifecycleEventType string

const (
	LifecycleEventActivated       LifecycleEventType = "subscription.activated"
	LifecycleEventGraceStarted    LifecycleEventType = "subscription.grace_started"
	LifecycleEventSuspended       LifecycleEventType = "subscription.suspended"
	LifecycleEventTerminated      LifecycleEventType = "subscription.terminated"
	LifecycleEventExpired         LifecycleEventType = "subscription.expired"
	LifecycleEventCancelled       LifecycleEventType = "subscription.cancelled"
	LifecycleEventRenewed         LifecycleEventType = "subscription.renewed"
	LifecycleEventRenewalDue      LifecycleEventType = "subscription.renewal_due"
	LifecycleEventReactivated     LifecycleEventType = "subscription.reactivated"
	LifecycleEventPaymentFailed   LifecycleEventType = "subscription.payment_failed"
	LifecycleEventPaymentRetryDue LifecycleEventType = "subscription.payment_retry_due"
	LifecycleEventPaymentRecovery LifecycleEventType = "subscription.payment_recovered"
	LifecycleEventPlanChanged     LifecycleEventType = "subscription.plan_changed"
)

func (e LifecycleEventType) String() string {
	return string(e)
}
