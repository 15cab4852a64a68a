package proration

import (
	"context"
	"time"

	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// Params holds all necessary input for calculating a proration.
type Params struct {
	// Subscription context
	SubscriptionID string
	PeriodStart    time.Time // start of the current billing period
	PeriodEnd      time.Time // end of the current billing period

	// Change details
	ChangeType      types.ChangeType
	OldPricePerUnit decimal.Decimal
	NewPricePerUnit decimal.Decimal
	OldQuantity     decimal.Decimal
	NewQuantity     decimal.Decimal
	EffectiveDate   time.Time // effective date of the change

	// Method selects how the remaining fraction is computed
	Method types.ProrationMethod

	// PercentRemaining feeds the percentage method directly; ignored otherwise
	PercentRemaining decimal.Decimal
}

// Result holds the output of a proration calculation. Credit and charge are
// both non-negative; NetAmount = ChargeAmount - CreditAmount.
type Result struct {
	SubscriptionID    string                `json:"subscription_id"`
	ChangeType        types.ChangeType      `json:"change_type"`
	Method            types.ProrationMethod `json:"method"`
	EffectiveDate     time.Time             `json:"effective_date"`
	PeriodStart       time.Time             `json:"period_start"`
	PeriodEnd         time.Time             `json:"period_end"`
	RemainingFraction decimal.Decimal       `json:"remaining_fraction"`
	CreditAmount      decimal.Decimal       `json:"credit_amount"`
	ChargeAmount      decimal.Decimal       `json:"charge_amount"`
	NetAmount         decimal.Decimal       `json:"net_amount"`
}

// CalculationStatus tracks the lifecycle of a persisted proration record
type CalculationStatus string

const (
	CalculationStatusDraft    CalculationStatus = "draft"
	CalculationStatusApproved CalculationStatus = "approved"
)

// Calculation is the persisted transaction record of one change request.
// It is created once per request and immutable after approval.
type Calculation struct {
	ID     string            `db:"id" json:"id"`
	Status CalculationStatus `db:"status" json:"status"`

	Result

	types.BaseModel
}

// NewCalculation wraps a calculator result into a draft transaction record
func NewCalculation(result *Result) *Calculation {
	return &Calculation{
		ID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRORATION),
		Status: CalculationStatusDraft,
		Result: *result,
	}
}

// Repository stores proration transaction records
type Repository interface {
	Create(ctx context.Context, calc *Calculation) error
	Get(ctx context.Context, id string) (*Calculation, error)
	Approve(ctx context.Context, id string) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Calculation, error)
}
