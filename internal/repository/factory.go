package repository

import (
	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/domain/proration"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/repository/inmemory"
)

// The engine is storage agnostic: durable persistence belongs to the host
// platform, which supplies its own Repository implementations. The embedded
// in-memory stores back the default wiring, local development and tests.

func NewPlanRepository(logger *logger.Logger) plan.Repository {
	return inmemory.NewPlanStore()
}

func NewSubscriptionRepository(planRepo plan.Repository, logger *logger.Logger) subscription.Repository {
	return inmemory.NewSubscriptionStore(planRepo)
}

func NewLifecycleEventRepository(logger *logger.Logger) subscription.EventRepository {
	return inmemory.NewLifecycleEventStore()
}

func NewProrationRepository(logger *logger.Logger) proration.Repository {
	return inmemory.NewProrationStore()
}
