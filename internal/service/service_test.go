package service

import (
	"time"

	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/testutil"
	"github.com/openams/openams/internal/types"
	"github.com/shopspring/decimal"
)

// ServiceTestSuite wires the in-memory stores into ServiceParams for all
// service-level tests.
type ServiceTestSuite struct {
	testutil.BaseServiceSuite
}

func (s *ServiceTestSuite) params() ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:        s.GetLogger(),
		Config:        s.GetConfig(),
		Clock:         s.GetClock(),
		SubRepo:       stores.SubscriptionStore,
		PlanRepo:      stores.PlanStore,
		EventRepo:     stores.EventStore,
		ProrationRepo: stores.ProrationStore,
		Dispatcher:    s.GetDispatcher(),
	}
}

func (s *ServiceTestSuite) newResolver() PolicyResolver {
	return NewPolicyResolver(s.params())
}

func (s *ServiceTestSuite) newSubscriptionService() SubscriptionService {
	svc, err := NewSubscriptionService(s.params(), s.newResolver())
	s.Require().NoError(err)
	return svc
}

// createPlan seeds a plan fixture and registers its category with the store
func (s *ServiceTestSuite) createPlan(mutate func(*plan.Plan)) *plan.Plan {
	p := &plan.Plan{
		ID:              testutil.NewTestPlanID(),
		Name:            "Professional Membership",
		Category:        types.PlanCategoryMembership,
		PricePerUnit:    decimal.NewFromInt(120),
		Currency:        "usd",
		BillingPeriod:   types.BILLING_PERIOD_ANNUAL,
		BillingType:     types.BillingTypeAnniversary,
		ProrationMethod: types.ProrationMethodDaily,
	}
	if mutate != nil {
		mutate(p)
	}
	s.Require().NoError(p.Validate())
	s.Require().NoError(s.GetStores().PlanStore.Create(s.GetContext(), p))
	return p
}

func mustDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
