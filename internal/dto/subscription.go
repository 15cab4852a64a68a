package dto

import (
	"time"

	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest opens a draft subscription for a member
type CreateSubscriptionRequest struct {
	MemberID  string          `json:"member_id" binding:"required"`
	PlanID    string          `json:"plan_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	AutoRenew bool            `json:"auto_renew"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if r.MemberID == "" {
		return ierr.NewError("member_id is required").
			WithHint("A subscription must belong to a member").
			Mark(ierr.ErrValidation)
	}
	if r.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("A subscription must reference a plan").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity.IsNegative() {
		return ierr.NewError("quantity cannot be negative").
			WithHintf("got quantity %s", r.Quantity).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionResponse is the external view of one subscription record
type SubscriptionResponse struct {
	*subscription.Subscription

	// Lifecycle preview as of the request time
	Stage                types.SubscriptionState `json:"stage"`
	GraceEnd             *time.Time              `json:"grace_end,omitempty"`
	SuspendEnd           *time.Time              `json:"suspend_end,omitempty"`
	TerminateDate        *time.Time              `json:"terminate_date,omitempty"`
	DaysUntilSuspension  int                     `json:"days_until_suspension"`
	DaysUntilTermination int                     `json:"days_until_termination"`
}

// RecordPaymentRequest reports the outcome of one external payment attempt
type RecordPaymentRequest struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if !r.Succeeded && r.Error == "" {
		return ierr.NewError("failure reason is required").
			WithHint("A failed payment must carry the gateway error").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// OperatorActionRequest carries the optional reason for a manual suspend or
// terminate action
type OperatorActionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ChangePlanRequest asks for a mid-cycle plan or quantity change
type ChangePlanRequest struct {
	NewPlanID     string          `json:"new_plan_id,omitempty"`
	NewQuantity   decimal.Decimal `json:"new_quantity"`
	EffectiveDate *time.Time      `json:"effective_date,omitempty"`

	// Preview computes amounts without persisting anything
	Preview bool `json:"preview"`
}
