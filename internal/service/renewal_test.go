package service

import (
	"testing"
	"time"

	domainplan "github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/testutil"
	"github.com/openams/openams/internal/types"
	"github.com/stretchr/testify/suite"
)

type RenewalPlannerTestSuite struct {
	ServiceTestSuite
}

func TestRenewalPlannerSuite(t *testing.T) {
	suite.Run(t, new(RenewalPlannerTestSuite))
}

func (s *RenewalPlannerTestSuite) newPlanner() RenewalPlanner {
	return NewRenewalPlanner(s.params(), s.newSubscriptionService())
}

func (s *RenewalPlannerTestSuite) activate(planID string, autoRenew bool, y int, m time.Month, d int) string {
	svc := s.newSubscriptionService()
	s.GetClock().SetToday(y, m, d)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID:  testutil.NewTestMemberID(),
		PlanID:    planID,
		AutoRenew: autoRenew,
	})
	s.Require().NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.Require().NoError(err)
	return created.ID
}

func (s *RenewalPlannerTestSuite) TestPreviewAnniversaryAnnual() {
	p := s.createPlan(nil)
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.March, 15)

	preview, err := planner.PreviewRenewal(s.GetContext(), id)
	s.NoError(err)
	s.True(preview.ShouldRenew)
	s.Require().NotNil(preview.NextPaidThrough)
	s.Equal(*mustDate(2026, time.March, 15), *preview.NextPaidThrough)

	// Annual plans open their renewal window two months ahead
	s.Require().NotNil(preview.RenewalOpensOn)
	s.Equal(*mustDate(2025, time.January, 15), *preview.RenewalOpensOn)
	s.NotEmpty(preview.NoticeReference)
}

func (s *RenewalPlannerTestSuite) TestPreviewLeadTimePerBillingPeriod() {
	// Quarterly plans open two weeks ahead, shorter and half-year plans one week
	cases := []struct {
		period  types.BillingPeriod
		opensOn time.Time
	}{
		{types.BILLING_PERIOD_QUARTER, *mustDate(2024, time.June, 1)},
		{types.BILLING_PERIOD_MONTHLY, *mustDate(2024, time.April, 8)},
		{types.BILLING_PERIOD_HALF_YEAR, *mustDate(2024, time.September, 8)},
	}
	for _, tc := range cases {
		s.Run(string(tc.period), func() {
			p := s.createPlan(func(p *domainplan.Plan) {
				p.BillingPeriod = tc.period
			})
			planner := s.newPlanner()
			id := s.activate(p.ID, false, 2024, time.March, 15)

			preview, err := planner.PreviewRenewal(s.GetContext(), id)
			s.NoError(err)
			s.True(preview.ShouldRenew)
			s.Require().NotNil(preview.RenewalOpensOn)
			s.Equal(tc.opensOn, *preview.RenewalOpensOn)
		})
	}
}

func (s *RenewalPlannerTestSuite) TestPreviewCalendarAnnualRenewsToNextBoundary() {
	p := s.createPlan(func(p *domainplan.Plan) {
		p.BillingType = types.BillingTypeCalendar
	})
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.November, 15)

	// Paid through 2024-12-31; next period closes 2025-12-31
	preview, err := planner.PreviewRenewal(s.GetContext(), id)
	s.NoError(err)
	s.True(preview.ShouldRenew)
	s.Require().NotNil(preview.NextPaidThrough)
	s.Equal(*mustDate(2025, time.December, 31), *preview.NextPaidThrough)
	s.Equal(*mustDate(2024, time.October, 31), *preview.RenewalOpensOn)
}

func (s *RenewalPlannerTestSuite) TestPreviewLifetimeNeverRenews() {
	p := s.createPlan(func(p *domainplan.Plan) {
		p.Lifetime = true
		p.BillingPeriod = ""
		p.BillingType = ""
	})
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.March, 15)

	preview, err := planner.PreviewRenewal(s.GetContext(), id)
	s.NoError(err)
	s.False(preview.ShouldRenew)
	s.Nil(preview.NextPaidThrough)
}

func (s *RenewalPlannerTestSuite) TestConfirmRenewalExtendsPaidThrough() {
	p := s.createPlan(nil)
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.March, 15)

	resp, err := planner.ConfirmRenewal(s.GetContext(), id)
	s.NoError(err)
	s.Require().NotNil(resp.PaidThroughDate)
	s.Equal(*mustDate(2026, time.March, 15), *resp.PaidThroughDate)
	s.Equal(types.SubscriptionStateActive, resp.State)
	s.Nil(resp.NextRenewalDate)

	events, err := s.GetStores().EventStore.ListBySubscription(s.GetContext(), id)
	s.NoError(err)
	lastEvent := events[len(events)-1]
	s.Equal(types.LifecycleEventRenewed, lastEvent.Type)
}

func (s *RenewalPlannerTestSuite) TestConfirmRenewalClearsGraceState() {
	p := s.createPlan(nil)
	planner := s.newPlanner()
	scheduler := s.newScheduler()
	id := s.activate(p.ID, false, 2023, time.January, 1)

	s.GetClock().SetToday(2024, time.January, 10)
	_, err := scheduler.RunGraceScan(s.GetContext())
	s.NoError(err)

	resp, err := planner.ConfirmRenewal(s.GetContext(), id)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, resp.State)
	s.Nil(resp.GracePeriodStartDate)
	s.Equal(*mustDate(2025, time.January, 1), *resp.PaidThroughDate)
}

func (s *RenewalPlannerTestSuite) TestConfirmRenewalRejectsLifetime() {
	p := s.createPlan(func(p *domainplan.Plan) {
		p.Lifetime = true
		p.BillingPeriod = ""
		p.BillingType = ""
	})
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.March, 15)

	_, err := planner.ConfirmRenewal(s.GetContext(), id)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *RenewalPlannerTestSuite) TestRenewalScanIssuesNoticeOnce() {
	p := s.createPlan(nil)
	planner := s.newPlanner()
	id := s.activate(p.ID, false, 2024, time.March, 15)

	// Before the window opens nothing happens
	s.GetClock().SetToday(2024, time.December, 1)
	report, err := planner.RunRenewalScan(s.GetContext())
	s.NoError(err)
	s.Equal(0, report.Transitioned)

	// Window opens 2025-01-15
	s.GetClock().SetToday(2025, time.January, 20)
	report, err = planner.RunRenewalScan(s.GetContext())
	s.NoError(err)
	s.Equal(1, report.Transitioned)

	stored, err := s.GetStores().SubscriptionStore.Get(s.GetContext(), id)
	s.NoError(err)
	s.Equal(types.SubscriptionStatePendingRenewal, stored.State)
	s.Require().NotNil(stored.NextRenewalDate)

	notices := s.GetDispatcher().OfType(types.LifecycleEventRenewalDue)
	s.Len(notices, 1)

	// Re-running does not issue a second notice
	report, err = planner.RunRenewalScan(s.GetContext())
	s.NoError(err)
	s.Equal(0, report.Transitioned)
	s.Len(s.GetDispatcher().OfType(types.LifecycleEventRenewalDue), 1)
}

func (s *RenewalPlannerTestSuite) TestRenewalScanConfirmsAutoRenew() {
	p := s.createPlan(nil)
	planner := s.newPlanner()
	id := s.activate(p.ID, true, 2024, time.March, 15)

	s.GetClock().SetToday(2025, time.February, 1)
	report, err := planner.RunRenewalScan(s.GetContext())
	s.NoError(err)
	s.Equal(1, report.Transitioned)

	stored, err := s.GetStores().SubscriptionStore.Get(s.GetContext(), id)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, stored.State)
	s.Require().NotNil(stored.PaidThroughDate)
	s.Equal(*mustDate(2026, time.March, 15), *stored.PaidThroughDate)

	renewed := s.GetDispatcher().OfType(types.LifecycleEventRenewed)
	s.Len(renewed, 1)
}

func (s *RenewalPlannerTestSuite) newScheduler() LifecycleScheduler {
	return NewLifecycleScheduler(s.params(), s.newResolver())
}
