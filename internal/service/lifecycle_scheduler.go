package service

import (
	"context"
	"sync"
	"time"

	"github.com/openams/openams/internal/domain/lifecycle"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// LifecycleScheduler runs the periodic batch scans that move subscriptions
// through grace, suspension and termination. Scans are idempotent: each
// transition is guarded by an audit timestamp, so re-running a scan for the
// same day never applies a transition twice. A failed record is reported and
// skipped; the batch continues.
type LifecycleScheduler interface {
	RunGraceScan(ctx context.Context) (*dto.ScanResponse, error)
	RunSuspensionScan(ctx context.Context) (*dto.ScanResponse, error)
	RunTerminationScan(ctx context.Context) (*dto.ScanResponse, error)
}

type lifecycleScheduler struct {
	ServiceParams
	resolver PolicyResolver
}

func NewLifecycleScheduler(params ServiceParams, resolver PolicyResolver) LifecycleScheduler {
	return &lifecycleScheduler{
		ServiceParams: params,
		resolver:      resolver,
	}
}

func (s *lifecycleScheduler) RunGraceScan(ctx context.Context) (*dto.ScanResponse, error) {
	return s.runScan(ctx, types.ScanTypeGrace, s.applyGrace)
}

func (s *lifecycleScheduler) RunSuspensionScan(ctx context.Context) (*dto.ScanResponse, error) {
	return s.runScan(ctx, types.ScanTypeSuspension, s.applySuspension)
}

func (s *lifecycleScheduler) RunTerminationScan(ctx context.Context) (*dto.ScanResponse, error) {
	return s.runScan(ctx, types.ScanTypeTermination, s.applyTermination)
}

// scanOutcome is the per-record decision of one scan step
type scanOutcome int

const (
	outcomeSkipped scanOutcome = iota
	outcomeTransitioned
)

type scanStep func(ctx context.Context, sub *subscription.Subscription, result *lifecycle.Result) (scanOutcome, error)

func (s *lifecycleScheduler) runScan(ctx context.Context, scanType types.ScanType, step scanStep) (*dto.ScanResponse, error) {
	asOf := s.Clock.Today()
	report := dto.NewScanResponse(scanType, asOf, s.Clock.Now())

	due, err := s.SubRepo.QueryDueFor(ctx, scanType, asOf)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting lifecycle scan",
		"scan_type", scanType,
		"run_id", report.RunID,
		"as_of", asOf,
		"candidates", len(due),
	)

	var mu sync.Mutex
	workers := pool.New().WithMaxGoroutines(s.Config.Lifecycle.ScanWorkers)

	for _, sub := range due {
		sub := sub
		workers.Go(func() {
			outcome, err := s.processRecord(ctx, sub, asOf, step)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case ierr.IsVersionConflict(err):
				// another writer got there first; the next run re-evaluates
				s.Logger.Warnw("skipping concurrently modified subscription",
					"scan_type", scanType,
					"subscription_id", sub.ID,
				)
				report.RecordSkip()
			case err != nil:
				s.Logger.Errorw("scan failed for subscription",
					"scan_type", scanType,
					"subscription_id", sub.ID,
					"error", err,
				)
				report.RecordFailure(sub.ID, err)
			case outcome == outcomeTransitioned:
				report.RecordTransition()
			default:
				report.RecordSkip()
			}
		})
	}
	workers.Wait()

	report.CompletedAt = s.Clock.Now()
	s.Logger.Infow("completed lifecycle scan",
		"scan_type", scanType,
		"run_id", report.RunID,
		"processed", report.Processed,
		"transitioned", report.Transitioned,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *lifecycleScheduler) processRecord(ctx context.Context, sub *subscription.Subscription, asOf time.Time, step scanStep) (scanOutcome, error) {
	policy, err := s.resolver.ResolveForPlan(ctx, sub.PlanID)
	if err != nil {
		return outcomeSkipped, err
	}

	result, err := lifecycle.Compute(sub.PaidThroughDate, policy, asOf, sub.State)
	if err != nil {
		return outcomeSkipped, err
	}

	return step(ctx, sub, result)
}

// applyGrace moves an active subscription whose paid-through date has passed
// into the grace state. The grace start timestamp is the idempotence guard.
func (s *lifecycleScheduler) applyGrace(ctx context.Context, sub *subscription.Subscription, result *lifecycle.Result) (scanOutcome, error) {
	if result.Stage != types.SubscriptionStateGrace || sub.GracePeriodStartDate != nil {
		return outcomeSkipped, nil
	}
	if !sub.CanTransitionTo(types.SubscriptionStateGrace) {
		return outcomeSkipped, nil
	}

	today := s.Clock.Today()
	sub.State = types.SubscriptionStateGrace
	sub.GracePeriodStartDate = &today

	if err := s.persistTransition(ctx, sub, types.LifecycleEventGraceStarted, "paid-through date passed"); err != nil {
		return outcomeSkipped, err
	}
	return outcomeTransitioned, nil
}

// applySuspension suspends a grace subscription past its grace end.
func (s *lifecycleScheduler) applySuspension(ctx context.Context, sub *subscription.Subscription, result *lifecycle.Result) (scanOutcome, error) {
	if !result.PendingSuspension || sub.ActualSuspendDate != nil {
		return outcomeSkipped, nil
	}
	if !sub.CanTransitionTo(types.SubscriptionStateSuspended) {
		return outcomeSkipped, nil
	}

	today := s.Clock.Today()
	sub.State = types.SubscriptionStateSuspended
	sub.ActualSuspendDate = &today
	sub.SuspendedForNonPayment = true

	if err := s.persistTransition(ctx, sub, types.LifecycleEventSuspended, "grace period expired"); err != nil {
		return outcomeSkipped, err
	}
	return outcomeTransitioned, nil
}

// applyTermination terminates a suspended subscription past its suspension end.
func (s *lifecycleScheduler) applyTermination(ctx context.Context, sub *subscription.Subscription, result *lifecycle.Result) (scanOutcome, error) {
	if !result.PendingTermination || sub.ActualTerminateDate != nil {
		return outcomeSkipped, nil
	}
	if !sub.CanTransitionTo(types.SubscriptionStateTerminated) {
		return outcomeSkipped, nil
	}

	today := s.Clock.Today()
	sub.State = types.SubscriptionStateTerminated
	sub.ActualTerminateDate = &today
	sub.AutoRenew = false
	sub.NextRenewalDate = nil

	if err := s.persistTransition(ctx, sub, types.LifecycleEventTerminated, "suspension period expired"); err != nil {
		return outcomeSkipped, err
	}
	return outcomeTransitioned, nil
}

func (s *lifecycleScheduler) persistTransition(ctx context.Context, sub *subscription.Subscription, eventType types.LifecycleEventType, detail string) error {
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
