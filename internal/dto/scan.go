package dto

import (
	"time"

	"github.com/openams/openams/internal/types"
)

// maxScanErrorItems bounds the error detail carried in a scan response so a
// pathological batch cannot blow up the report payload.
const maxScanErrorItems = 50

// ScanResponse summarizes one batch scan run. Scans continue past individual
// record failures, so a response can carry both successes and errors.
type ScanResponse struct {
	ScanType     types.ScanType `json:"scan_type"`
	RunID        string         `json:"run_id"`
	AsOf         time.Time      `json:"as_of"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Processed    int            `json:"processed"`
	Transitioned int            `json:"transitioned"`
	Skipped      int            `json:"skipped"`
	Failed       int            `json:"failed"`
	Errors       []ScanError    `json:"errors,omitempty"`
}

// ScanError records one failed record inside a batch run
type ScanError struct {
	SubscriptionID string `json:"subscription_id"`
	Error          string `json:"error"`
}

// NewScanResponse starts a report for one run
func NewScanResponse(scanType types.ScanType, asOf, startedAt time.Time) *ScanResponse {
	return &ScanResponse{
		ScanType:  scanType,
		RunID:     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SCAN_RUN),
		AsOf:      asOf,
		StartedAt: startedAt,
	}
}

// RecordTransition counts a record whose state the scan changed
func (r *ScanResponse) RecordTransition() {
	r.Processed++
	r.Transitioned++
}

// RecordSkip counts a record the scan inspected but left untouched
func (r *ScanResponse) RecordSkip() {
	r.Processed++
	r.Skipped++
}

// RecordFailure counts a failed record and keeps a bounded error sample
func (r *ScanResponse) RecordFailure(subscriptionID string, err error) {
	r.Processed++
	r.Failed++
	if len(r.Errors) < maxScanErrorItems {
		r.Errors = append(r.Errors, ScanError{
			SubscriptionID: subscriptionID,
			Error:          err.Error(),
		})
	}
}
