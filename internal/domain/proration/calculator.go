package proration

import (
	"context"
	"fmt"
	"math"

	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// averageDaysPerMonth is used by the monthly method to round partial
// periods to whole months.
const averageDaysPerMonth = 30.44

// Calculator computes the credit and charge amounts for a mid-cycle change.
// Implementations are pure and safe for concurrent use.
type Calculator interface {
	Calculate(ctx context.Context, params Params) (*Result, error)
}

type calculator struct{}

// NewCalculator returns the engine's proration calculator.
func NewCalculator() Calculator {
	return &calculator{}
}

func (c *calculator) Calculate(ctx context.Context, params Params) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("invalid proration params: %v", err).
			Mark(ierr.ErrValidation)
	}

	result := &Result{
		SubscriptionID: params.SubscriptionID,
		ChangeType:     params.ChangeType,
		Method:         params.Method,
		EffectiveDate:  params.EffectiveDate,
		PeriodStart:    params.PeriodStart,
		PeriodEnd:      params.PeriodEnd,
		CreditAmount:   decimal.Zero,
		ChargeAmount:   decimal.Zero,
		NetAmount:      decimal.Zero,
	}

	// Method none produces zero amounts regardless of other inputs
	if params.Method == types.ProrationMethodNone {
		result.RemainingFraction = decimal.Zero
		return result, nil
	}

	fraction, err := remainingFraction(params)
	if err != nil {
		return nil, err
	}
	result.RemainingFraction = fraction

	credit, charge := splitAmounts(params, fraction)
	result.CreditAmount = credit.Round(2)
	result.ChargeAmount = charge.Round(2)
	result.NetAmount = result.ChargeAmount.Sub(result.CreditAmount)

	return result, nil
}

// remainingFraction computes the fraction of the billing period still ahead
// of the effective date, clamped to [0, 1]. A change effective after the
// period end yields 0: no proration, the full new price takes effect next
// cycle.
func remainingFraction(params Params) (decimal.Decimal, error) {
	if params.EffectiveDate.After(params.PeriodEnd) {
		return decimal.Zero, nil
	}

	totalDays := types.DaysBetweenInclusive(params.PeriodStart, params.PeriodEnd)
	if totalDays <= 0 {
		return decimal.Zero, ierr.NewError("invalid billing period").
			WithHintf("billing period has no days (%s to %s)",
				params.PeriodStart.Format("2006-01-02"), params.PeriodEnd.Format("2006-01-02")).
			Mark(ierr.ErrValidation)
	}

	var fraction decimal.Decimal
	switch params.Method {
	case types.ProrationMethodDaily:
		remainingDays := types.DaysBetweenInclusive(params.EffectiveDate, params.PeriodEnd)
		fraction = decimal.NewFromInt(int64(remainingDays)).Div(decimal.NewFromInt(int64(totalDays)))

	case types.ProrationMethodMonthly:
		remainingDays := types.DaysBetweenInclusive(params.EffectiveDate, params.PeriodEnd)
		remainingMonths := math.Round(float64(remainingDays) / averageDaysPerMonth)
		totalMonths := math.Round(float64(totalDays) / averageDaysPerMonth)
		if totalMonths <= 0 {
			totalMonths = 1
		}
		fraction = decimal.NewFromFloat(remainingMonths).Div(decimal.NewFromFloat(totalMonths))

	case types.ProrationMethodPercentage:
		fraction = params.PercentRemaining

	default:
		return decimal.Zero, ierr.NewError("invalid proration method").
			WithHintf("unsupported proration method %q", params.Method).
			Mark(ierr.ErrValidation)
	}

	if fraction.LessThan(decimal.Zero) {
		return decimal.Zero, nil
	}
	if fraction.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1), nil
	}
	return fraction, nil
}

// splitAmounts applies the change semantics: upgrades charge the prorated
// price delta, downgrades credit it, quantity changes apply the quantity
// delta at the unit price, cancellations credit the remaining value.
func splitAmounts(params Params, fraction decimal.Decimal) (credit, charge decimal.Decimal) {
	credit = decimal.Zero
	charge = decimal.Zero

	switch params.ChangeType {
	case types.ChangeTypeUpgrade:
		delta := params.NewPricePerUnit.Sub(params.OldPricePerUnit).Mul(params.NewQuantity)
		charge = delta.Mul(fraction)

	case types.ChangeTypeDowngrade:
		delta := params.OldPricePerUnit.Sub(params.NewPricePerUnit).Mul(params.NewQuantity)
		credit = delta.Mul(fraction)

	case types.ChangeTypeQuantityChange:
		qtyDelta := params.NewQuantity.Sub(params.OldQuantity)
		amount := qtyDelta.Abs().Mul(params.NewPricePerUnit).Mul(fraction)
		if qtyDelta.IsPositive() {
			charge = amount
		} else {
			credit = amount
		}

	case types.ChangeTypeCancellation:
		credit = params.OldPricePerUnit.Mul(params.OldQuantity).Mul(fraction)
	}

	// Both amounts are non-negative by construction; guard anyway against
	// inverted price inputs slipping through validation
	if credit.IsNegative() {
		credit = decimal.Zero
	}
	if charge.IsNegative() {
		charge = decimal.Zero
	}
	return credit, charge
}

// validateParams checks if essential parameters are provided.
func validateParams(params Params) error {
	if err := params.ChangeType.Validate(); err != nil {
		return err
	}
	if err := params.Method.Validate(); err != nil {
		return err
	}
	if params.EffectiveDate.IsZero() {
		return fmt.Errorf("effective date is required")
	}
	if params.PeriodStart.IsZero() || params.PeriodEnd.IsZero() {
		return fmt.Errorf("billing period start and end dates are required")
	}
	if params.PeriodEnd.Before(params.PeriodStart) {
		return fmt.Errorf("billing period end date cannot be before start date")
	}

	switch params.ChangeType {
	case types.ChangeTypeUpgrade:
		if params.NewPricePerUnit.LessThan(params.OldPricePerUnit) {
			return fmt.Errorf("upgrade requires the new price to be at least the old price")
		}
		if params.NewQuantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("quantity must be positive for an upgrade")
		}
	case types.ChangeTypeDowngrade:
		if params.NewPricePerUnit.GreaterThan(params.OldPricePerUnit) {
			return fmt.Errorf("downgrade requires the new price to be at most the old price")
		}
		if params.NewQuantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("quantity must be positive for a downgrade")
		}
	case types.ChangeTypeQuantityChange:
		if params.OldQuantity.Equal(params.NewQuantity) {
			return fmt.Errorf("old and new quantities cannot be equal for a quantity change")
		}
		if params.OldQuantity.LessThanOrEqual(decimal.Zero) || params.NewQuantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("both old and new quantities must be positive for a quantity change")
		}
	case types.ChangeTypeCancellation:
		if params.OldQuantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("old quantity must be positive for a cancellation")
		}
	}

	return nil
}
