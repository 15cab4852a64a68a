package dto

import (
	"github.com/openams/openams/internal/domain/proration"
)

// ProrationPreviewResponse carries the computed amounts for a proposed
// change without persisting anything.
type ProrationPreviewResponse struct {
	*proration.Result

	Currency string `json:"currency"`
}

// ProrationCalculationResponse is the external view of a persisted
// proration transaction record.
type ProrationCalculationResponse struct {
	*proration.Calculation
}
