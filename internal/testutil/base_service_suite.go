package testutil

import (
	"context"
	"time"

	"github.com/openams/openams/internal/clock"
	"github.com/openams/openams/internal/config"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/repository/inmemory"
	"github.com/openams/openams/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores bundles the in-memory repositories one suite run shares
type Stores struct {
	SubscriptionStore *inmemory.SubscriptionStore
	PlanStore         *inmemory.PlanStore
	EventStore        *inmemory.LifecycleEventStore
	ProrationStore    *inmemory.ProrationStore
}

// BaseServiceSuite provides common setup for service tests: fresh stores, a
// deterministic clock, default configuration and a capture dispatcher.
type BaseServiceSuite struct {
	suite.Suite
	ctx        context.Context
	stores     Stores
	clock      *clock.TestClock
	config     *config.Configuration
	logger     *logger.Logger
	dispatcher *CaptureDispatcher
}

// SetupSuite initializes the base test environment
func (s *BaseServiceSuite) SetupSuite() {
	log, err := logger.NewLogger(config.GetDefaultConfig())
	s.Require().NoError(err)
	s.logger = log
}

// SetupTest refreshes all state before each test
func (s *BaseServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewTestClock(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC))
	s.config = config.GetDefaultConfig()
	s.dispatcher = NewCaptureDispatcher()
	planStore := inmemory.NewPlanStore()
	s.stores = Stores{
		SubscriptionStore: inmemory.NewSubscriptionStore(planStore),
		PlanStore:         planStore,
		EventStore:        inmemory.NewLifecycleEventStore(),
		ProrationStore:    inmemory.NewProrationStore(),
	}
}

func (s *BaseServiceSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceSuite) GetClock() *clock.TestClock {
	return s.clock
}

func (s *BaseServiceSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceSuite) GetDispatcher() *CaptureDispatcher {
	return s.dispatcher
}

// NewTestPlanID returns a deterministic-looking plan identifier for fixtures
func NewTestPlanID() string {
	return types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN)
}

// NewTestMemberID returns a member identifier for fixtures
func NewTestMemberID() string {
	return types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBER)
}
