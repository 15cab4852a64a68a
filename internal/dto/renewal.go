package dto

import (
	"time"

	"github.com/openams/openams/internal/types"
)

// RenewalPreviewResponse describes the next renewal of one subscription
type RenewalPreviewResponse struct {
	SubscriptionID string `json:"subscription_id"`

	// NoticeReference is the member-facing short code printed on the
	// renewal notice
	NoticeReference string `json:"notice_reference,omitempty"`

	// ShouldRenew is false for lifetime plans and terminal subscriptions
	ShouldRenew bool   `json:"should_renew"`
	Reason      string `json:"reason,omitempty"`

	CurrentPaidThrough *time.Time          `json:"current_paid_through,omitempty"`
	NextPaidThrough    *time.Time          `json:"next_paid_through,omitempty"`
	RenewalOpensOn     *time.Time          `json:"renewal_opens_on,omitempty"`
	BillingType        types.BillingType   `json:"billing_type,omitempty"`
	BillingPeriod      types.BillingPeriod `json:"billing_period,omitempty"`
}
