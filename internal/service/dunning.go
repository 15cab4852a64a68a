package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/types"
)

// DunningService drives the retry side of the dunning process. Payment
// execution lives outside the engine: the scan surfaces the subscriptions
// whose retry is due and notifies the payment collaborator, which later
// reports the outcome through RecordPaymentResult.
type DunningService interface {
	RunDunningRetryScan(ctx context.Context) (*dto.ScanResponse, error)
}

type dunningService struct {
	ServiceParams
}

func NewDunningService(params ServiceParams) DunningService {
	return &dunningService{ServiceParams: params}
}

func (s *dunningService) RunDunningRetryScan(ctx context.Context) (*dto.ScanResponse, error) {
	asOf := s.Clock.Today()
	report := dto.NewScanResponse(types.ScanTypeDunningRetry, asOf, s.Clock.Now())

	due, err := s.SubRepo.QueryDueFor(ctx, types.ScanTypeDunningRetry, asOf)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting dunning retry scan",
		"run_id", report.RunID,
		"as_of", asOf,
		"candidates", len(due),
	)

	for _, sub := range due {
		if err := s.requestRetry(ctx, sub, asOf); err != nil {
			if ierr.IsVersionConflict(err) {
				report.RecordSkip()
				continue
			}
			s.Logger.Errorw("dunning retry scan failed for subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			report.RecordFailure(sub.ID, err)
			continue
		}
		report.RecordTransition()
	}

	report.CompletedAt = s.Clock.Now()
	s.Logger.Infow("completed dunning retry scan",
		"run_id", report.RunID,
		"processed", report.Processed,
		"transitioned", report.Transitioned,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// requestRetry clears the due retry date so the same attempt is not
// requested twice; the next failure report schedules the following one.
func (s *dunningService) requestRetry(ctx context.Context, sub *subscription.Subscription, asOf time.Time) error {
	retryDate := *sub.NextRetryDate
	sub.NextRetryDate = nil
	if err := s.SubRepo.Save(ctx, sub); err != nil {
		return err
	}

	detail := fmt.Sprintf("retry %d due since %s, level %s",
		sub.PaymentRetryCount, retryDate.Format(time.DateOnly), sub.DunningLevel)
	s.Dispatcher.Notify(ctx, sub.ID, types.LifecycleEventPaymentRetryDue, detail)
	return nil
}
