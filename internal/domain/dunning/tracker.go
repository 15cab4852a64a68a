package dunning

import (
	"time"

	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
)

// retryBackoffFactorDays is the linear backoff step: the n-th failure
// schedules the next retry n*3 days out.
const retryBackoffFactorDays = 3

// State is the dunning snapshot carried on a subscription record.
type State struct {
	RetryCount    int
	Level         types.DunningLevel
	NextRetryDate *time.Time
	LastError     string
}

// Outcome is the tracker's decision after one payment event. The caller
// applies it to the aggregate and acts on the flags; the tracker itself
// never mutates subscription state.
type Outcome struct {
	State State

	// RequiresSuspension is set when the retry budget is exhausted and the
	// subscription should enter the suspension path
	RequiresSuspension bool

	// RequiresReactivation is set on a successful payment for a
	// subscription that was suspended for non-payment
	RequiresReactivation bool
}

// Tracker escalates and resets the dunning process for one subscription.
// It is pure and safe for concurrent use.
type Tracker struct {
	maxRetries int
}

// NewTracker builds a tracker with the configured retry budget.
func NewTracker(maxRetries int) (*Tracker, error) {
	if maxRetries <= 0 {
		return nil, ierr.NewError("invalid retry budget").
			WithHintf("max payment retries must be positive, got %d", maxRetries).
			Mark(ierr.ErrConfiguration)
	}
	return &Tracker{maxRetries: maxRetries}, nil
}

// OnPaymentFailure records one failed payment attempt: the retry count
// increments, the level escalates and the next retry is scheduled with a
// linear backoff. The level never decreases while failures accumulate.
func (t *Tracker) OnPaymentFailure(current State, today time.Time, paymentErr string) Outcome {
	next := State{
		RetryCount: current.RetryCount + 1,
		LastError:  paymentErr,
	}

	switch {
	case next.RetryCount >= t.maxRetries:
		next.Level = types.DunningLevelFinal
	case next.RetryCount >= 2:
		next.Level = types.DunningLevelHard
	default:
		next.Level = types.DunningLevelSoft
	}
	if next.Level.Rank() < current.Level.Rank() {
		next.Level = current.Level
	}

	outcome := Outcome{State: next}
	if next.RetryCount >= t.maxRetries {
		// Budget exhausted: no further retry, hand over to suspension
		outcome.RequiresSuspension = true
		return outcome
	}

	retryAt := today.AddDate(0, 0, next.RetryCount*retryBackoffFactorDays)
	outcome.State.NextRetryDate = &retryAt
	return outcome
}

// OnPaymentSuccess clears the dunning process. A subscription that was
// suspended for non-payment additionally needs reactivation.
func (t *Tracker) OnPaymentSuccess(suspendedForNonPayment bool) Outcome {
	return Outcome{
		State:                State{Level: types.DunningLevelNone},
		RequiresReactivation: suspendedForNonPayment,
	}
}

// MaxRetries reports the configured retry budget.
func (t *Tracker) MaxRetries() int {
	return t.maxRetries
}
