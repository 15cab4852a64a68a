package lifecycle

import (
	ierr "github.com/openams/openams/internal/errors"
)

// PeriodPolicy is the resolved set of lifecycle windows for one plan:
// explicit plan overrides (when > 0) over system defaults. It is a value
// object injected into each calculation, resolved once per batch run.
type PeriodPolicy struct {
	// GraceDays is the window after the paid-through date during which the
	// subscription stays usable despite non-payment
	GraceDays int `json:"grace_days"`

	// SuspendDays is the window after grace end before termination eligibility
	SuspendDays int `json:"suspend_days"`

	// TerminateDays is the total offset from the paid-through date after
	// which the subscription is terminated. It is independent of the
	// suspension window, so inconsistent overrides can place the terminate
	// date before the suspension end. That literal behavior is preserved;
	// Validate rejects only the configurations that break the grace window.
	TerminateDays int `json:"terminate_days"`
}

// Resolve applies the override precedence: a positive plan override wins,
// otherwise the system default applies.
func Resolve(defaults PeriodPolicy, graceOverride, suspendOverride, terminateOverride int) PeriodPolicy {
	policy := defaults
	if graceOverride > 0 {
		policy.GraceDays = graceOverride
	}
	if suspendOverride > 0 {
		policy.SuspendDays = suspendOverride
	}
	if terminateOverride > 0 {
		policy.TerminateDays = terminateOverride
	}
	return policy
}

// Validate surfaces configuration errors before a batch run proceeds for a
// record. Invalid policies cause the record to be skipped and logged, never
// silently coerced.
func (p PeriodPolicy) Validate() error {
	if p.GraceDays < 0 || p.SuspendDays < 0 || p.TerminateDays < 0 {
		return ierr.NewError("negative lifecycle window").
			WithHint("Lifecycle day counts must not be negative").
			WithReportableDetails(map[string]any{
				"grace_days":     p.GraceDays,
				"suspend_days":   p.SuspendDays,
				"terminate_days": p.TerminateDays,
			}).
			Mark(ierr.ErrConfiguration)
	}
	if p.TerminateDays < p.GraceDays {
		return ierr.NewError("terminate window shorter than grace window").
			WithHint("The termination offset would fall before the end of the grace period").
			WithReportableDetails(map[string]any{
				"grace_days":     p.GraceDays,
				"terminate_days": p.TerminateDays,
			}).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// TerminatesBeforeSuspensionEnds reports the policy inconsistency where the
// terminate date precedes the suspension end date. The calculation keeps the
// two offsets independent, so this is a warning for configuration review,
// not an error.
func (p PeriodPolicy) TerminatesBeforeSuspensionEnds() bool {
	return p.TerminateDays < p.GraceDays+p.SuspendDays
}
