package service

import (
	"testing"
	"time"

	"github.com/openams/openams/internal/dto"
	"github.com/openams/openams/internal/testutil"
	"github.com/openams/openams/internal/types"
	"github.com/stretchr/testify/suite"
)

type DunningServiceTestSuite struct {
	ServiceTestSuite
}

func TestDunningServiceSuite(t *testing.T) {
	suite.Run(t, new(DunningServiceTestSuite))
}

func (s *DunningServiceTestSuite) TestRetryScanRequestsDueRetriesOnce() {
	svc := s.newSubscriptionService()
	dunningSvc := NewDunningService(s.params())
	p := s.createPlan(nil)

	s.GetClock().SetToday(2024, time.March, 1)
	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	// First failure schedules a retry for 2024-03-04
	_, err = svc.RecordPaymentResult(s.GetContext(), created.ID,
		&dto.RecordPaymentRequest{Succeeded: false, Error: "card declined"})
	s.NoError(err)

	// Not due yet
	s.GetClock().SetToday(2024, time.March, 3)
	report, err := dunningSvc.RunDunningRetryScan(s.GetContext())
	s.NoError(err)
	s.Equal(0, report.Transitioned)

	// Due now: the retry request goes out and the date clears
	s.GetClock().SetToday(2024, time.March, 4)
	report, err = dunningSvc.RunDunningRetryScan(s.GetContext())
	s.NoError(err)
	s.Equal(1, report.Transitioned)

	stored, err := s.GetStores().SubscriptionStore.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Nil(stored.NextRetryDate)
	s.Equal(1, stored.PaymentRetryCount)

	retries := s.GetDispatcher().OfType(types.LifecycleEventPaymentRetryDue)
	s.Len(retries, 1)

	// Re-running requests nothing further
	report, err = dunningSvc.RunDunningRetryScan(s.GetContext())
	s.NoError(err)
	s.Equal(0, report.Transitioned)
	s.Len(s.GetDispatcher().OfType(types.LifecycleEventPaymentRetryDue), 1)
}
