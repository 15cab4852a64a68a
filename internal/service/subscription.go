package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openams/openams/internal/domain/dunning"
	"github.com/openams/openams/internal/domain/lifecycle"
	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/domain/proration"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionService owns every mutation of the subscription aggregate.
// External modules read subscriptions freely but change them only through
// these operations.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *subscription.Filter) ([]*dto.SubscriptionResponse, error)
	ActivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	SuspendSubscription(ctx context.Context, id string, reason string) (*dto.SubscriptionResponse, error)
	TerminateSubscription(ctx context.Context, id string, reason string) (*dto.SubscriptionResponse, error)
	ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	RecordPaymentResult(ctx context.Context, id string, req *dto.RecordPaymentRequest) (*dto.SubscriptionResponse, error)
	ChangePlan(ctx context.Context, id string, req *dto.ChangePlanRequest) (*dto.ProrationPreviewResponse, error)
}

type subscriptionService struct {
	ServiceParams
	resolver   PolicyResolver
	calculator proration.Calculator
	tracker    *dunning.Tracker
}

func NewSubscriptionService(params ServiceParams, resolver PolicyResolver) (SubscriptionService, error) {
	tracker, err := dunning.NewTracker(params.Config.Lifecycle.MaxPaymentRetries)
	if err != nil {
		return nil, err
	}
	return &subscriptionService{
		ServiceParams: params,
		resolver:      resolver,
		calculator:    proration.NewCalculator(),
		tracker:       tracker,
	}, nil
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	startDate := s.Clock.Today()
	if req.StartDate != nil {
		sd := req.StartDate.UTC()
		startDate = sd
	}

	sub := &subscription.Subscription{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		MemberID:     req.MemberID,
		PlanID:       p.ID,
		State:        types.SubscriptionStateDraft,
		Quantity:     quantity,
		StartDate:    startDate,
		Lifetime:     p.Lifetime,
		AutoRenew:    req.AutoRenew,
		DunningLevel: types.DunningLevelNone,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"member_id", sub.MemberID,
		"plan_id", sub.PlanID,
	)
	return s.toResponse(ctx, sub)
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *subscription.Filter) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		resp, err := s.toResponse(ctx, sub)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ActivateSubscription moves a draft or trial subscription into active state
// and establishes its first paid-through date. Membership-category plans are
// limited to one subscription in good standing per member.
func (s *subscriptionService) ActivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.CanTransitionTo(types.SubscriptionStateActive) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("subscription %s cannot move from %s to active", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	if p.Category.IsSingleInstance() {
		count, err := s.SubRepo.CountInGoodStanding(ctx, sub.MemberID, p.Category)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ierr.NewError("member already holds an active membership").
				WithHintf("member %s already has a subscription in good standing for category %s",
					sub.MemberID, p.Category).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	if !sub.Lifetime {
		paidThrough, err := firstPaidThrough(sub.StartDate, p)
		if err != nil {
			return nil, err
		}
		sub.PaidThroughDate = &paidThrough
		sub.EndDate = &paidThrough
	}

	sub.State = types.SubscriptionStateActive
	sub.ClearDunning()
	sub.ClearLifecycleAudit()

	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventActivated, ""); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// firstPaidThrough derives the initial paid-through date from the plan's
// billing anchor. Calendar plans are paid through the fixed boundary of the
// period containing the start date; anniversary plans through one full
// period from the start date.
func firstPaidThrough(startDate time.Time, p *plan.Plan) (time.Time, error) {
	if p.BillingType == types.BillingTypeCalendar {
		return types.CalendarPeriodEnd(startDate, p.BillingPeriod)
	}
	return types.AddBillingPeriod(startDate, p.BillingPeriod)
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.CanTransitionTo(types.SubscriptionStateCancelled) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("subscription %s cannot move from %s to cancelled", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	sub.State = types.SubscriptionStateCancelled
	sub.AutoRenew = false
	sub.NextRenewalDate = nil

	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventCancelled, ""); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// SuspendSubscription is the manual operator counterpart of the suspension
// scan. An already suspended subscription is a logged no-op, not an error:
// the scan may have gotten there first.
func (s *subscriptionService) SuspendSubscription(ctx context.Context, id string, reason string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.State == types.SubscriptionStateSuspended {
		s.Logger.Infow("subscription already suspended",
			"subscription_id", sub.ID,
		)
		return s.toResponse(ctx, sub)
	}
	if !sub.CanTransitionTo(types.SubscriptionStateSuspended) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("subscription %s cannot move from %s to suspended", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	today := s.Clock.Today()
	sub.State = types.SubscriptionStateSuspended
	sub.ActualSuspendDate = &today

	if reason == "" {
		reason = "manual suspension"
	}
	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventSuspended, reason); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// TerminateSubscription is the manual operator counterpart of the
// termination scan. Already terminated records are a logged no-op.
func (s *subscriptionService) TerminateSubscription(ctx context.Context, id string, reason string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.State == types.SubscriptionStateTerminated {
		s.Logger.Infow("subscription already terminated",
			"subscription_id", sub.ID,
		)
		return s.toResponse(ctx, sub)
	}
	if !sub.CanTransitionTo(types.SubscriptionStateTerminated) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("subscription %s cannot move from %s to terminated", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	today := s.Clock.Today()
	sub.State = types.SubscriptionStateTerminated
	sub.ActualTerminateDate = &today
	sub.AutoRenew = false
	sub.NextRenewalDate = nil

	if reason == "" {
		reason = "manual termination"
	}
	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventTerminated, reason); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// ReactivateSubscription is the only exit from a terminal state. It restores
// active state, clears dunning and the scan audit marks, and establishes a
// fresh paid-through date as if the subscription were newly activated.
func (s *subscriptionService) ReactivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.State == types.SubscriptionStateActive {
		return nil, ierr.NewError("subscription is already active").
			WithHintf("subscription %s is active", sub.ID).
			Mark(ierr.ErrInvalidOperation)
	}
	if !sub.CanTransitionTo(types.SubscriptionStateActive) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("subscription %s cannot move from %s to active", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	if !sub.Lifetime {
		paidThrough, err := firstPaidThrough(s.Clock.Today(), p)
		if err != nil {
			return nil, err
		}
		sub.PaidThroughDate = &paidThrough
		sub.EndDate = &paidThrough
	}

	sub.State = types.SubscriptionStateActive
	sub.ClearDunning()
	sub.ClearLifecycleAudit()

	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventReactivated, ""); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// RecordPaymentResult feeds one external payment attempt into the dunning
// process. Payment execution itself lives outside the engine; only the
// outcome arrives here.
func (s *subscriptionService) RecordPaymentResult(ctx context.Context, id string, req *dto.RecordPaymentRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.State.IsTerminal() {
		return nil, ierr.NewError("subscription is terminal").
			WithHintf("subscription %s in state %s no longer accepts payment results", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}

	if req.Succeeded {
		return s.recordPaymentSuccess(ctx, sub)
	}
	return s.recordPaymentFailure(ctx, sub, req.Error)
}

func (s *subscriptionService) recordPaymentSuccess(ctx context.Context, sub *subscription.Subscription) (*dto.SubscriptionResponse, error) {
	outcome := s.tracker.OnPaymentSuccess(sub.SuspendedForNonPayment)

	sub.ClearDunning()
	eventType := types.LifecycleEventPaymentRecovery
	if outcome.RequiresReactivation {
		sub.State = types.SubscriptionStateActive
		sub.ClearLifecycleAudit()
		eventType = types.LifecycleEventReactivated
	}

	if err := s.saveWithEvent(ctx, sub, eventType, "payment recovered"); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

func (s *subscriptionService) recordPaymentFailure(ctx context.Context, sub *subscription.Subscription, paymentErr string) (*dto.SubscriptionResponse, error) {
	current := dunning.State{
		RetryCount:    sub.PaymentRetryCount,
		Level:         sub.DunningLevel,
		NextRetryDate: sub.NextRetryDate,
		LastError:     sub.LastPaymentError,
	}
	outcome := s.tracker.OnPaymentFailure(current, s.Clock.Today(), paymentErr)

	sub.PaymentRetryCount = outcome.State.RetryCount
	sub.DunningLevel = outcome.State.Level
	sub.NextRetryDate = outcome.State.NextRetryDate
	sub.LastPaymentError = outcome.State.LastError

	eventType := types.LifecycleEventPaymentFailed
	detail := fmt.Sprintf("attempt %d, level %s", outcome.State.RetryCount, outcome.State.Level)

	if outcome.RequiresSuspension && sub.CanTransitionTo(types.SubscriptionStateSuspended) {
		today := s.Clock.Today()
		sub.State = types.SubscriptionStateSuspended
		sub.ActualSuspendDate = &today
		sub.SuspendedForNonPayment = true
		eventType = types.LifecycleEventSuspended
		detail = "payment retries exhausted"
	}

	if err := s.saveWithEvent(ctx, sub, eventType, detail); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub)
}

// ChangePlan computes the proration for a mid-cycle plan or quantity change.
// With Preview set the amounts are returned without touching any state;
// otherwise the change is applied and the calculation persisted as a draft
// transaction record.
func (s *subscriptionService) ChangePlan(ctx context.Context, id string, req *dto.ChangePlanRequest) (*dto.ProrationPreviewResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsInGoodStanding() {
		return nil, ierr.NewError("subscription not in good standing").
			WithHintf("subscription %s in state %s cannot change plans", sub.ID, sub.State).
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.Lifetime || sub.PaidThroughDate == nil {
		return nil, ierr.NewError("no billing period to prorate").
			WithHintf("subscription %s has no current paid period", sub.ID).
			Mark(ierr.ErrInvalidOperation)
	}

	oldPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	newPlan := oldPlan
	if req.NewPlanID != "" && req.NewPlanID != sub.PlanID {
		newPlan, err = s.PlanRepo.Get(ctx, req.NewPlanID)
		if err != nil {
			return nil, err
		}
	}

	newQuantity := req.NewQuantity
	if newQuantity.IsZero() {
		newQuantity = sub.Quantity
	}

	effective := s.Clock.Today()
	if req.EffectiveDate != nil {
		effective = req.EffectiveDate.UTC()
	}

	periodStart := currentPeriodStart(sub.StartDate, *sub.PaidThroughDate, oldPlan.BillingPeriod)

	params := proration.Params{
		SubscriptionID:  sub.ID,
		PeriodStart:     periodStart,
		PeriodEnd:       *sub.PaidThroughDate,
		ChangeType:      classifyChange(oldPlan, newPlan, sub.Quantity, newQuantity),
		OldPricePerUnit: oldPlan.PricePerUnit,
		NewPricePerUnit: newPlan.PricePerUnit,
		OldQuantity:     sub.Quantity,
		NewQuantity:     newQuantity,
		EffectiveDate:   effective,
		Method:          newPlan.ProrationMethod,
	}

	result, err := s.calculator.Calculate(ctx, params)
	if err != nil {
		return nil, err
	}

	response := &dto.ProrationPreviewResponse{
		Result:   result,
		Currency: newPlan.Currency,
	}
	if req.Preview {
		return response, nil
	}

	calc := proration.NewCalculation(result)
	calc.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := s.ProrationRepo.Create(ctx, calc); err != nil {
		return nil, err
	}

	sub.PlanID = newPlan.ID
	sub.Quantity = newQuantity
	if err := s.saveWithEvent(ctx, sub, types.LifecycleEventPlanChanged,
		fmt.Sprintf("%s, net %s %s", params.ChangeType, result.NetAmount, newPlan.Currency)); err != nil {
		return nil, err
	}

	return response, nil
}

// currentPeriodStart walks one billing interval back from the paid-through
// date. Renewed subscriptions keep their original StartDate, so the period
// start has to be re-derived; it never precedes the subscription start.
func currentPeriodStart(startDate, paidThrough time.Time, period types.BillingPeriod) time.Time {
	periodStart := types.AddClampedDate(paidThrough, 0, -period.Months(), 0).AddDate(0, 0, 1)
	if periodStart.Before(startDate) {
		return startDate
	}
	return periodStart
}

// classifyChange derives the change type from the price and quantity deltas
func classifyChange(oldPlan, newPlan *plan.Plan, oldQty, newQty decimal.Decimal) types.ChangeType {
	if oldPlan.ID == newPlan.ID {
		return types.ChangeTypeQuantityChange
	}
	if newPlan.PricePerUnit.GreaterThanOrEqual(oldPlan.PricePerUnit) {
		return types.ChangeTypeUpgrade
	}
	return types.ChangeTypeDowngrade
}

// saveWithEvent persists the aggregate, appends the lifecycle event and
// dispatches the notification. Event append failures are logged, not
// propagated: the state change already happened.
func (s *subscriptionService) saveWithEvent(ctx context.Context, sub *subscription.Subscription, eventType types.LifecycleEventType, detail string) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := s.SubRepo.Save(ctx, sub); err != nil {
		return err
	}

	event := subscription.NewLifecycleEvent(sub.ID, eventType, s.Clock.Now(), detail)
	if err := s.EventRepo.Append(ctx, event); err != nil {
		s.Logger.Errorw("failed to append lifecycle event",
			"subscription_id", sub.ID,
			"event_type", eventType,
			"error", err,
		)
	}

	s.Dispatcher.Notify(ctx, sub.ID, eventType, detail)
	return nil
}

// toResponse attaches the lifecycle preview to the raw record
func (s *subscriptionService) toResponse(ctx context.Context, sub *subscription.Subscription) (*dto.SubscriptionResponse, error) {
	response := &dto.SubscriptionResponse{
		Subscription: sub,
		Stage:        sub.State,
	}

	policy, err := s.resolver.ResolveForPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	result, err := lifecycle.Compute(sub.PaidThroughDate, policy, s.Clock.Today(), sub.State)
	if err != nil {
		return nil, err
	}

	response.Stage = result.Stage
	response.GraceEnd = result.GraceEnd
	response.SuspendEnd = result.SuspendEnd
	response.TerminateDate = result.TerminateDate
	response.DaysUntilSuspension = result.DaysUntilSuspension
	response.DaysUntilTermination = result.DaysUntilTermination
	return response, nil
}
