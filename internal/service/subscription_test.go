package service

import (
	"testing"
	"time"

	domainplan "github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/dto"
	ierr "github.com/openams/openams/internal/errors"
	"github.com/openams/openams/internal/testutil"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceTestSuite struct {
	ServiceTestSuite
}

func TestSubscriptionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func (s *SubscriptionServiceTestSuite) TestCreateAndActivateAnniversaryPlan() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)
	s.GetClock().SetToday(2024, time.March, 15)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStateDraft, created.State)
	s.True(created.Quantity.Equal(decimal.NewFromInt(1)))
	s.Nil(created.PaidThroughDate)

	activated, err := svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, activated.State)
	s.Require().NotNil(activated.PaidThroughDate)
	s.Equal(*mustDate(2025, time.March, 15), *activated.PaidThroughDate)

	events, err := s.GetStores().EventStore.ListBySubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Require().Len(events, 1)
	s.Equal(types.LifecycleEventActivated, events[0].Type)
}

func (s *SubscriptionServiceTestSuite) TestActivateCalendarPlanPaysThroughBoundary() {
	// An annual calendar plan bought Nov 15 is paid through Dec 31 of the
	// same year, not the purchase anniversary.
	svc := s.newSubscriptionService()
	p := s.createPlan(func(p *domainplan.Plan) {
		p.BillingType = types.BillingTypeCalendar
	})
	s.GetClock().SetToday(2024, time.November, 15)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)

	activated, err := svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Require().NotNil(activated.PaidThroughDate)
	s.Equal(*mustDate(2024, time.December, 31), *activated.PaidThroughDate)
}

func (s *SubscriptionServiceTestSuite) TestActivateLifetimePlanCarriesNoDates() {
	svc := s.newSubscriptionService()
	p := s.createPlan(func(p *domainplan.Plan) {
		p.Lifetime = true
		p.BillingPeriod = ""
		p.BillingType = ""
	})

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	s.True(created.Lifetime)

	activated, err := svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, activated.State)
	s.Nil(activated.PaidThroughDate)
	s.Nil(activated.EndDate)
	s.Nil(activated.GraceEnd)
}

func (s *SubscriptionServiceTestSuite) TestSingleMembershipPerMember() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)
	memberID := testutil.NewTestMemberID()

	first, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: memberID,
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), first.ID)
	s.NoError(err)

	second, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: memberID,
		PlanID:   p.ID,
	})
	s.NoError(err)

	_, err = svc.ActivateSubscription(s.GetContext(), second.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestChapterPlansAllowMultipleInstances() {
	svc := s.newSubscriptionService()
	p := s.createPlan(func(p *domainplan.Plan) {
		p.Category = types.PlanCategoryChapter
	})
	memberID := testutil.NewTestMemberID()

	for i := 0; i < 2; i++ {
		created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
			MemberID: memberID,
			PlanID:   p.ID,
		})
		s.NoError(err)
		_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
		s.NoError(err)
	}
}

func (s *SubscriptionServiceTestSuite) TestPaymentFailureEscalatesAndSuspends() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)
	s.GetClock().SetToday(2024, time.March, 1)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	failure := &dto.RecordPaymentRequest{Succeeded: false, Error: "card declined"}

	resp, err := svc.RecordPaymentResult(s.GetContext(), created.ID, failure)
	s.NoError(err)
	s.Equal(1, resp.PaymentRetryCount)
	s.Equal(types.DunningLevelSoft, resp.DunningLevel)
	s.Require().NotNil(resp.NextRetryDate)
	s.Equal(*mustDate(2024, time.March, 4), *resp.NextRetryDate)

	resp, err = svc.RecordPaymentResult(s.GetContext(), created.ID, failure)
	s.NoError(err)
	s.Equal(2, resp.PaymentRetryCount)
	s.Equal(types.DunningLevelHard, resp.DunningLevel)

	// Third failure exhausts the default budget of 3: final level, suspended
	resp, err = svc.RecordPaymentResult(s.GetContext(), created.ID, failure)
	s.NoError(err)
	s.Equal(3, resp.PaymentRetryCount)
	s.Equal(types.DunningLevelFinal, resp.DunningLevel)
	s.Equal(types.SubscriptionStateSuspended, resp.State)
	s.True(resp.SuspendedForNonPayment)
	s.Nil(resp.NextRetryDate)

	suspended := s.GetDispatcher().OfType(types.LifecycleEventSuspended)
	s.Len(suspended, 1)
}

func (s *SubscriptionServiceTestSuite) TestPaymentSuccessReactivatesSuspended() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	failure := &dto.RecordPaymentRequest{Succeeded: false, Error: "card declined"}
	for i := 0; i < 3; i++ {
		_, err = svc.RecordPaymentResult(s.GetContext(), created.ID, failure)
		s.NoError(err)
	}

	resp, err := svc.RecordPaymentResult(s.GetContext(), created.ID, &dto.RecordPaymentRequest{Succeeded: true})
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, resp.State)
	s.Equal(0, resp.PaymentRetryCount)
	s.Equal(types.DunningLevelNone, resp.DunningLevel)
	s.False(resp.SuspendedForNonPayment)
	s.Empty(resp.LastPaymentError)
}

func (s *SubscriptionServiceTestSuite) TestRecordPaymentRejectsTerminal() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	_, err = svc.CancelSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	_, err = svc.RecordPaymentResult(s.GetContext(), created.ID,
		&dto.RecordPaymentRequest{Succeeded: false, Error: "card declined"})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestReactivateCancelledSubscription() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)
	s.GetClock().SetToday(2024, time.March, 1)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	_, err = svc.CancelSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	s.GetClock().SetToday(2024, time.June, 10)
	resp, err := svc.ReactivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, resp.State)
	s.Require().NotNil(resp.PaidThroughDate)
	s.Equal(*mustDate(2025, time.June, 10), *resp.PaidThroughDate)
}

func (s *SubscriptionServiceTestSuite) TestManualSuspendAndTerminate() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	resp, err := svc.SuspendSubscription(s.GetContext(), created.ID, "fraud review")
	s.NoError(err)
	s.Equal(types.SubscriptionStateSuspended, resp.State)
	s.Require().NotNil(resp.ActualSuspendDate)
	s.False(resp.SuspendedForNonPayment)

	// Suspending again is a no-op, not an error
	again, err := svc.SuspendSubscription(s.GetContext(), created.ID, "")
	s.NoError(err)
	s.Equal(resp.Version, again.Version)
	s.Len(s.GetDispatcher().OfType(types.LifecycleEventSuspended), 1)

	terminated, err := svc.TerminateSubscription(s.GetContext(), created.ID, "member request")
	s.NoError(err)
	s.Equal(types.SubscriptionStateTerminated, terminated.State)
	s.Require().NotNil(terminated.ActualTerminateDate)
	s.False(terminated.AutoRenew)
	s.Nil(terminated.NextRenewalDate)

	_, err = svc.TerminateSubscription(s.GetContext(), created.ID, "")
	s.NoError(err)
	s.Len(s.GetDispatcher().OfType(types.LifecycleEventTerminated), 1)
}

func (s *SubscriptionServiceTestSuite) TestManualSuspendRejectsDraft() {
	svc := s.newSubscriptionService()
	p := s.createPlan(nil)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)

	_, err = svc.SuspendSubscription(s.GetContext(), created.ID, "")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestChangePlanPreviewDoesNotPersist() {
	svc := s.newSubscriptionService()
	monthly := s.createPlan(func(p *domainplan.Plan) {
		p.PricePerUnit = decimal.NewFromInt(10)
		p.BillingPeriod = types.BILLING_PERIOD_MONTHLY
	})
	upgraded := s.createPlan(func(p *domainplan.Plan) {
		p.PricePerUnit = decimal.NewFromInt(30)
		p.BillingPeriod = types.BILLING_PERIOD_MONTHLY
	})

	s.GetClock().SetToday(2025, time.June, 1)
	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   monthly.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	// 30-day period ending Jul 1, change effective Jun 16: 16 days remain
	s.GetClock().SetToday(2025, time.June, 16)
	preview, err := svc.ChangePlan(s.GetContext(), created.ID, &dto.ChangePlanRequest{
		NewPlanID: upgraded.ID,
		Preview:   true,
	})
	s.NoError(err)
	s.Equal(types.ChangeTypeUpgrade, preview.ChangeType)
	s.True(preview.ChargeAmount.Equal(decimal.NewFromFloat(10.67)),
		"expected charge 10.67, got %s", preview.ChargeAmount)

	// Preview leaves the subscription and the transaction log untouched
	after, err := svc.GetSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(monthly.ID, after.PlanID)

	calcs, err := s.GetStores().ProrationStore.ListBySubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Empty(calcs)
}

func (s *SubscriptionServiceTestSuite) TestChangePlanCommitPersistsCalculation() {
	svc := s.newSubscriptionService()
	monthly := s.createPlan(func(p *domainplan.Plan) {
		p.PricePerUnit = decimal.NewFromInt(10)
		p.BillingPeriod = types.BILLING_PERIOD_MONTHLY
	})
	upgraded := s.createPlan(func(p *domainplan.Plan) {
		p.PricePerUnit = decimal.NewFromInt(30)
		p.BillingPeriod = types.BILLING_PERIOD_MONTHLY
	})

	s.GetClock().SetToday(2025, time.June, 1)
	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   monthly.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	s.GetClock().SetToday(2025, time.June, 16)
	result, err := svc.ChangePlan(s.GetContext(), created.ID, &dto.ChangePlanRequest{
		NewPlanID: upgraded.ID,
	})
	s.NoError(err)
	s.True(result.ChargeAmount.Equal(decimal.NewFromFloat(10.67)))

	after, err := svc.GetSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(upgraded.ID, after.PlanID)

	calcs, err := s.GetStores().ProrationStore.ListBySubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Require().Len(calcs, 1)
	s.Equal(created.ID, calcs[0].SubscriptionID)

	events, err := s.GetStores().EventStore.ListBySubscription(s.GetContext(), created.ID)
	s.NoError(err)
	lastEvent := events[len(events)-1]
	s.Equal(types.LifecycleEventPlanChanged, lastEvent.Type)
}

func (s *SubscriptionServiceTestSuite) TestChangePlanRejectsLifetime() {
	svc := s.newSubscriptionService()
	lifetime := s.createPlan(func(p *domainplan.Plan) {
		p.Lifetime = true
		p.BillingPeriod = ""
		p.BillingType = ""
	})

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   lifetime.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	_, err = svc.ChangePlan(s.GetContext(), created.ID, &dto.ChangePlanRequest{Preview: true})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestLifecyclePreviewOnGet() {
	svc := s.newSubscriptionService()
	p := s.createPlan(func(p *domainplan.Plan) {
		p.GraceDaysOverride = 30
	})
	s.GetClock().SetToday(2023, time.January, 1)

	created, err := svc.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		MemberID: testutil.NewTestMemberID(),
		PlanID:   p.ID,
	})
	s.NoError(err)
	_, err = svc.ActivateSubscription(s.GetContext(), created.ID)
	s.NoError(err)

	// Paid through 2024-01-01; twenty days later the record reads as grace
	// with ten days until the suspension scan picks it up.
	s.GetClock().SetToday(2024, time.January, 20)
	resp, err := svc.GetSubscription(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStateGrace, resp.Stage)
	s.Equal(types.SubscriptionStateActive, resp.State)
	s.Require().NotNil(resp.GraceEnd)
	s.Equal(*mustDate(2024, time.January, 31), *resp.GraceEnd)
	s.Equal(10, resp.DaysUntilSuspension)
}
