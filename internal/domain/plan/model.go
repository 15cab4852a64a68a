package plan

import (
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// Plan describes a membership product: its price, billing configuration and
// lifecycle policy overrides. Plans are owned by the product catalog; the
// engine reads them to resolve policies and compute renewal dates.
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// Category controls the single-instance rule per member
	Category types.PlanCategory `db:"category" json:"category"`

	// PricePerUnit is the recurring price for one unit (seat) per billing period
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`

	// Currency is the lowercase 3 letter ISO code
	Currency string `db:"currency" json:"currency"`

	// BillingPeriod is the recurring interval of the plan
	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`

	// BillingType anchors renewals to calendar boundaries or anniversaries
	BillingType types.BillingType `db:"billing_type" json:"billing_type"`

	// Lifetime plans never expire and are never billed recurrently
	Lifetime bool `db:"lifetime" json:"lifetime"`

	// ProrationMethod applies to mid-cycle changes on this plan
	ProrationMethod types.ProrationMethod `db:"proration_method" json:"proration_method"`

	// Lifecycle window overrides in days. A value of 0 means the system
	// default applies; negative values are rejected at validation time.
	GraceDaysOverride     int `db:"grace_days_override" json:"grace_days_override"`
	SuspendDaysOverride   int `db:"suspend_days_override" json:"suspend_days_override"`
	TerminateDaysOverride int `db:"terminate_days_override" json:"terminate_days_override"`

	types.BaseModel
}

func (p *Plan) Validate() error {
	if err := p.Category.Validate(); err != nil {
		return err
	}
	if err := p.ProrationMethod.Validate(); err != nil {
		return err
	}
	if !p.Lifetime {
		if err := p.BillingPeriod.Validate(); err != nil {
			return err
		}
		if err := p.BillingType.Validate(); err != nil {
			return err
		}
	}
	if p.PricePerUnit.IsNegative() {
		return ierr.NewError("plan price cannot be negative").
			WithHintf("plan %s has price %s", p.ID, p.PricePerUnit).
			Mark(ierr.ErrValidation)
	}
	if p.GraceDaysOverride < 0 || p.SuspendDaysOverride < 0 || p.TerminateDaysOverride < 0 {
		return ierr.NewError("lifecycle overrides cannot be negative").
			WithHintf("plan %s carries a negative lifecycle window override", p.ID).
			WithReportableDetails(map[string]any{
				"grace_days_override":     p.GraceDaysOverride,
				"suspend_days_override":   p.SuspendDaysOverride,
				"terminate_days_override": p.TerminateDaysOverride,
			}).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}
