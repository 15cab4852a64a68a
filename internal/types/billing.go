package types

import (
	ierr "github.com/openams/openams/internal/errors"
	"github.com/samber/lo"
)

// BillingType anchors renewal dates either to fixed calendar boundaries or
// to the purchase anniversary.
type BillingType string

const (
	BillingTypeCalendar    BillingType = "calendar"
	BillingTypeAnniversary BillingType = "anniversary"
)

func (b BillingType) String() string {
	return string(b)
}

func (b BillingType) Validate() error {
	allowed := []BillingType{BillingTypeCalendar, BillingTypeAnniversary}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid billing type").
			WithHint("Invalid billing type").
			WithReportableDetails(map[string]any{
				"billing_type":  b,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingPeriod is the recurring billing interval of a plan
type BillingPeriod string

const (
	BILLING_PERIOD_MONTHLY   BillingPeriod = "MONTHLY"
	BILLING_PERIOD_QUARTER   BillingPeriod = "QUARTER"
	BILLING_PERIOD_HALF_YEAR BillingPeriod = "HALF_YEAR"
	BILLING_PERIOD_ANNUAL    BillingPeriod = "ANNUAL"
)

func (b BillingPeriod) String() string {
	return string(b)
}

// Months returns the interval length in months
func (b BillingPeriod) Months() int {
	switch b {
	case BILLING_PERIOD_MONTHLY:
		return 1
	case BILLING_PERIOD_QUARTER:
		return 3
	case BILLING_PERIOD_HALF_YEAR:
		return 6
	case BILLING_PERIOD_ANNUAL:
		return 12
	default:
		return 0
	}
}

func (b BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BILLING_PERIOD_MONTHLY,
		BILLING_PERIOD_QUARTER,
		BILLING_PERIOD_HALF_YEAR,
		BILLING_PERIOD_ANNUAL,
	}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid billing period").
			WithHint("Invalid billing period").
			WithReportableDetails(map[string]any{
				"billing_period":  b,
				"allowed_periods": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanCategory controls the single-instance rule: a member may hold at most
// one active-or-grace subscription per single-instance category, while
// multi-instance categories (chapters, publications) may repeat freely.
type PlanCategory string

const (
	PlanCategoryMembership  PlanCategory = "membership"
	PlanCategoryChapter     PlanCategory = "chapter"
	PlanCategoryPublication PlanCategory = "publication"
	PlanCategoryAddon       PlanCategory = "addon"
)

func (c PlanCategory) String() string {
	return string(c)
}

// IsSingleInstance reports whether only one active-or-grace subscription of
// this category may exist per member at a time.
func (c PlanCategory) IsSingleInstance() bool {
	return c == PlanCategoryMembership
}

func (c PlanCategory) Validate() error {
	allowed := []PlanCategory{
		PlanCategoryMembership,
		PlanCategoryChapter,
		PlanCategoryPublication,
		PlanCategoryAddon,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid plan category").
			WithHint("Invalid plan category").
			WithReportableDetails(map[string]any{
				"category":           c,
				"allowed_categories": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProrationMethod selects how the remaining-period fraction is computed
// for a mid-cycle change.
type ProrationMethod string

const (
	ProrationMethodDaily      ProrationMethod = "daily"
	ProrationMethodMonthly    ProrationMethod = "monthly"
	ProrationMethodPercentage ProrationMethod = "percentage"
	ProrationMethodNone       ProrationMethod = "none"
)

func (m ProrationMethod) String() string {
	return string(m)
}

func (m ProrationMethod) Validate() error {
	allowed := []ProrationMethod{
		ProrationMethodDaily,
		ProrationMethodMonthly,
		ProrationMethodPercentage,
		ProrationMethodNone,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid proration method").
			WithHint("Invalid proration method").
			WithReportableDetails(map[string]any{
				"method":          m,
				"allowed_methods": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangeType labels the kind of mid-cycle change a proration covers
type ChangeType string

const (
	ChangeTypeUpgrade        ChangeType = "upgrade"
	ChangeTypeDowngrade      ChangeType = "downgrade"
	ChangeTypeQuantityChange ChangeType = "quantity_change"
	ChangeTypeCancellation   ChangeType = "cancellation"
)

func (c ChangeType) String() string {
	return string(c)
}

func (c ChangeType) Validate() error {
	allowed := []ChangeType{
		ChangeTypeUpgrade,
		ChangeTypeDowngrade,
		ChangeTypeQuantityChange,
		ChangeTypeCancellation,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid change type").
			WithHint("Invalid change type").
			WithReportableDetails(map[string]any{
				"change_type":   c,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
