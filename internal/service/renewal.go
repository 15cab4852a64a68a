package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
)

// RenewalPlanner decides when a subscription enters its renewal window and
// what the next paid-through date is. Calendar-anchored plans renew to fixed
// calendar boundaries; anniversary plans advance by one billing interval
// with month-end clamping. Lifetime plans never renew.
type RenewalPlanner interface {
	PreviewRenewal(ctx context.Context, id string) (*dto.RenewalPreviewResponse, error)
	ConfirmRenewal(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	RunRenewalScan(ctx context.Context) (*dto.ScanResponse, error)
}

type renewalPlanner struct {
	ServiceParams
	subscriptionService SubscriptionService
}

func NewRenewalPlanner(params ServiceParams, subscriptionService SubscriptionService) RenewalPlanner {
	return &renewalPlanner{
		ServiceParams:       params,
		subscriptionService: subscriptionService,
	}
}

// renewalLeadTime returns how far ahead of the paid-through date the renewal
// window opens. Longer billing periods get earlier notices.
func renewalLeadTime(period types.BillingPeriod) (months, days int) {
	switch period {
	case types.BILLING_PERIOD_ANNUAL:
		return 2, 0
	case types.BILLING_PERIOD_QUARTER:
		return 0, 14
	default:
		return 0, 7
	}
}

// nextPaidThrough computes where one renewal extends the paid period to
func nextPaidThrough(paidThrough time.Time, p *plan.Plan) (time.Time, error) {
	if p.BillingType == types.BillingTypeCalendar {
		return types.NextCalendarPeriodEnd(paidThrough, p.BillingPeriod)
	}
	return types.AddBillingPeriod(paidThrough, p.BillingPeriod)
}

func (s *renewalPlanner) PreviewRenewal(ctx context.Context, id string) (*dto.RenewalPreviewResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.preview(ctx, sub)
}

func (s *renewalPlanner) preview(ctx context.Context, sub *subscription.Subscription) (*dto.RenewalPreviewResponse, error) {
	response := &dto.RenewalPreviewResponse{
		SubscriptionID:     sub.ID,
		CurrentPaidThrough: sub.PaidThroughDate,
	}

	switch {
	case sub.Lifetime:
		response.Reason = "lifetime subscription never renews"
		return response, nil
	case sub.State.IsTerminal():
		response.Reason = fmt.Sprintf("subscription is %s", sub.State)
		return response, nil
	case sub.PaidThroughDate == nil:
		response.Reason = "subscription has no paid period yet"
		return response, nil
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	next, err := nextPaidThrough(*sub.PaidThroughDate, p)
	if err != nil {
		return nil, err
	}

	leadMonths, leadDays := renewalLeadTime(p.BillingPeriod)
	opensOn := types.AddClampedDate(*sub.PaidThroughDate, 0, -leadMonths, -leadDays)

	response.ShouldRenew = true
	response.NextPaidThrough = &next
	response.RenewalOpensOn = &opensOn
	response.BillingType = p.BillingType
	response.BillingPeriod = p.BillingPeriod
	response.NoticeReference = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RENEWAL_NOTICE)
	return response, nil
}

// ConfirmRenewal extends the paid period by one billing interval. The scan
// audit marks and the dunning state reset so the new period starts clean.
// Confirmation implies the renewal payment already settled externally.
func (s *renewalPlanner) ConfirmRenewal(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Lifetime {
		return nil, ierr.NewError("lifetime subscription never renews").
			WithHintf("subscription %s is a lifetime subscription", sub.ID).
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.State.IsTerminal() {
		return nil, ierr.NewError("subscription is terminal").
			WithHintf("subscription %s in state %s cannot renew; reactivate it instead", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.PaidThroughDate == nil {
		return nil, ierr.NewError("subscription has no paid period").
			WithHintf("subscription %s must be activated before it can renew", sub.ID).
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	next, err := nextPaidThrough(*sub.PaidThroughDate, p)
	if err != nil {
		return nil, err
	}

	sub.PaidThroughDate = &next
	sub.EndDate = &next
	sub.State = types.SubscriptionStateActive
	sub.NextRenewalDate = nil
	sub.ClearDunning()
	sub.ClearLifecycleAudit()

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Save(ctx, sub); err != nil {
		return nil, err
	}

	event := subscription.NewLifecycleEvent(sub.ID, types.LifecycleEventRenewed, s.Clock.Now(),
		fmt.Sprintf("paid through %s", next.Format(time.DateOnly)))
	if err := s.EventRepo.Append(ctx, event); err != nil {
		s.Logger.Errorw("failed to append lifecycle event",
			"subscription_id", sub.ID,
			"event_type", types.LifecycleEventRenewed,
			"error", err,
		)
	}
	s.Dispatcher.Notify(ctx, sub.ID, types.LifecycleEventRenewed, "")

	return s.subscriptionService.GetSubscription(ctx, sub.ID)
}

// RunRenewalScan finds subscriptions whose renewal window has opened, issues
// a renewal-due notice for each and confirms the auto-renewing ones
// immediately. NextRenewalDate is the idempotence guard: a notice for the
// current period is only issued once.
func (s *renewalPlanner) RunRenewalScan(ctx context.Context) (*dto.ScanResponse, error) {
	asOf := s.Clock.Today()
	report := dto.NewScanResponse(types.ScanTypeRenewal, asOf, s.Clock.Now())

	due, err := s.SubRepo.QueryDueFor(ctx, types.ScanTypeRenewal, asOf)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting renewal scan",
		"run_id", report.RunID,
		"as_of", asOf,
		"candidates", len(due),
	)

	for _, sub := range due {
		if err := s.processRenewal(ctx, sub, asOf, report); err != nil {
			if ierr.IsVersionConflict(err) {
				report.RecordSkip()
				continue
			}
			s.Logger.Errorw("renewal scan failed for subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			report.RecordFailure(sub.ID, err)
		}
	}

	report.CompletedAt = s.Clock.Now()
	s.Logger.Infow("completed renewal scan",
		"run_id", report.RunID,
		"processed", report.Processed,
		"transitioned", report.Transitioned,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *renewalPlanner) processRenewal(ctx context.Context, sub *subscription.Subscription, asOf time.Time, report *dto.ScanResponse) error {
	preview, err := s.preview(ctx, sub)
	if err != nil {
		return err
	}
	if !preview.ShouldRenew || asOf.Before(*preview.RenewalOpensOn) {
		report.RecordSkip()
		return nil
	}

	// Notice already issued for this period
	if sub.NextRenewalDate != nil && !sub.NextRenewalDate.Before(*preview.RenewalOpensOn) {
		report.RecordSkip()
		return nil
	}

	if sub.AutoRenew {
		if _, err := s.ConfirmRenewal(ctx, sub.ID); err != nil {
			return err
		}
		report.RecordTransition()
		return nil
	}

	sub.NextRenewalDate = preview.RenewalOpensOn
	if sub.CanTransitionTo(types.SubscriptionStatePendingRenewal) {
		sub.State = types.SubscriptionStatePendingRenewal
	}
	if err := s.SubRepo.Save(ctx, sub); err != nil {
		return err
	}

	detail := fmt.Sprintf("notice %s, renews through %s",
		preview.NoticeReference, preview.NextPaidThrough.Format(time.DateOnly))
	event := subscription.NewLifecycleEvent(sub.ID, types.LifecycleEventRenewalDue, s.Clock.Now(), detail)
	if err := s.EventRepo.Append(ctx, event); err != nil {
		s.Logger.Errorw("failed to append lifecycle event",
			"subscription_id", sub.ID,
			"event_type", types.LifecycleEventRenewalDue,
			"error", err,
		)
	}
	s.Dispatcher.Notify(ctx, sub.ID, types.LifecycleEventRenewalDue, detail)

	report.RecordTransition()
	return nil
}
