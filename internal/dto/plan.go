package dto

import (
	"context"

	domainplan "github.com/openams/openams/internal/domain/plan"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest registers a membership product with the engine
type CreatePlanRequest struct {
	Name            string                `json:"name" binding:"required"`
	Category        types.PlanCategory    `json:"category" binding:"required"`
	PricePerUnit    decimal.Decimal       `json:"price_per_unit"`
	Currency        string                `json:"currency" binding:"required"`
	BillingPeriod   types.BillingPeriod   `json:"billing_period"`
	BillingType     types.BillingType     `json:"billing_type"`
	Lifetime        bool                  `json:"lifetime"`
	ProrationMethod types.ProrationMethod `json:"proration_method"`

	GraceDaysOverride     int `json:"grace_days_override"`
	SuspendDaysOverride   int `json:"suspend_days_override"`
	TerminateDaysOverride int `json:"terminate_days_override"`
}

// ToPlan builds the domain record; Validate on the result is the caller's job
func (r *CreatePlanRequest) ToPlan(ctx context.Context) *domainplan.Plan {
	return &domainplan.Plan{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		BaseModel:             types.GetDefaultBaseModel(ctx),
		Name:                  r.Name,
		Category:              r.Category,
		PricePerUnit:          r.PricePerUnit,
		Currency:              r.Currency,
		BillingPeriod:         r.BillingPeriod,
		BillingType:           r.BillingType,
		Lifetime:              r.Lifetime,
		ProrationMethod:       r.ProrationMethod,
		GraceDaysOverride:     r.GraceDaysOverride,
		SuspendDaysOverride:   r.SuspendDaysOverride,
		TerminateDaysOverride: r.TerminateDaysOverride,
	}
}

func (r *CreatePlanRequest) Validate() error {
	if r.Name == "" {
		return ierr.NewError("plan name is required").
			Mark(ierr.ErrValidation)
	}
	if r.Currency == "" {
		return ierr.NewError("plan currency is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanResponse is the external view of a plan
type PlanResponse struct {
	*domainplan.Plan
}
