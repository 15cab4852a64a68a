package lifecycle

import (
	"time"

	"github.com/openams/openams/internal/types"
)

// Result carries the lifecycle stage and milestone dates computed for one
// subscription at one point in time.
type Result struct {
	// Stage is the lifecycle stage the subscription belongs in as of today
	Stage types.SubscriptionState `json:"stage"`

	// Milestone dates; nil when no paid-through date exists
	GraceEnd      *time.Time `json:"grace_end,omitempty"`
	SuspendEnd    *time.Time `json:"suspend_end,omitempty"`
	TerminateDate *time.Time `json:"terminate_date,omitempty"`

	// Day counters for renewal notices and dashboards
	DaysInGrace          int `json:"days_in_grace"`
	DaysUntilSuspension  int `json:"days_until_suspension"`
	DaysUntilTermination int `json:"days_until_termination"`

	// PendingSuspension marks a subscription past its grace end that the
	// suspension scan should pick up
	PendingSuspension bool `json:"pending_suspension"`

	// PendingTermination marks a suspended subscription past its
	// suspension end that the termination scan should pick up
	PendingTermination bool `json:"pending_termination"`
}

// Compute derives the lifecycle stage and milestone dates from the
// paid-through date, the resolved policy and today's date. It is pure:
// batch scans and UI previews get identical results for identical inputs.
//
// Milestones: graceEnd = paidThrough + GraceDays; suspendEnd = graceEnd +
// SuspendDays; terminateDate = paidThrough + TerminateDays. The terminate
// offset is measured from the paid-through date, not from the suspension
// end, so inconsistent policies can order terminateDate before suspendEnd.
func Compute(paidThrough *time.Time, policy PeriodPolicy, today time.Time, current types.SubscriptionState) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	// Lifetime or not-yet-billed subscriptions have no milestones
	if paidThrough == nil {
		return &Result{Stage: staticStage(current)}, nil
	}

	graceEnd := paidThrough.AddDate(0, 0, policy.GraceDays)
	suspendEnd := graceEnd.AddDate(0, 0, policy.SuspendDays)
	terminateDate := paidThrough.AddDate(0, 0, policy.TerminateDays)

	result := &Result{
		GraceEnd:      &graceEnd,
		SuspendEnd:    &suspendEnd,
		TerminateDate: &terminateDate,
	}

	if current.IsTerminal() {
		result.Stage = staticStage(current)
		return result, nil
	}

	switch {
	case current == types.SubscriptionStateSuspended:
		result.Stage = types.SubscriptionStateSuspended
		if today.After(suspendEnd) {
			result.PendingTermination = true
		}
		result.DaysUntilTermination = remainingDays(today, terminateDate)

	case !today.After(*paidThrough):
		result.Stage = types.SubscriptionStateActive

	case !today.After(graceEnd):
		result.Stage = types.SubscriptionStateGrace
		result.DaysInGrace = types.DaysUntil(*paidThrough, today)
		result.DaysUntilSuspension = remainingDays(today, graceEnd)
		result.DaysUntilTermination = remainingDays(today, terminateDate)

	default:
		// Past grace end: the record belongs in grace until the suspension
		// scan applies the transition
		result.Stage = types.SubscriptionStateGrace
		result.DaysInGrace = types.DaysUntil(*paidThrough, today)
		result.PendingSuspension = true
		result.DaysUntilTermination = remainingDays(today, terminateDate)
	}

	return result, nil
}

// remainingDays counts the full days left after today before the milestone
// is processed; the scan that applies the transition runs on the milestone's
// own day, which therefore does not count as remaining.
func remainingDays(today, milestone time.Time) int {
	days := types.DaysUntil(today, milestone) - 1
	if days < 0 {
		return 0
	}
	return days
}

// staticStage maps a current state to its lifecycle stage when no date math
// applies. Cancelled and expired subscriptions read as terminated.
func staticStage(current types.SubscriptionState) types.SubscriptionState {
	switch current {
	case types.SubscriptionStateCancelled, types.SubscriptionStateExpired:
		return types.SubscriptionStateTerminated
	default:
		return current
	}
}
