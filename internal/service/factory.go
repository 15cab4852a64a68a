package service

import (
	"github.com/openams/openams/internal/clock"
	"github.com/openams/openams/internal/config"
	"github.com/openams/openams/internal/domain/plan"
	"github.com/openams/openams/internal/domain/proration"
	"github.com/openams/openams/internal/domain/subscription"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/notification"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Clock  clock.Clock

	// Repositories
	SubRepo       subscription.Repository
	PlanRepo      plan.Repository
	EventRepo     subscription.EventRepository
	ProrationRepo proration.Repository

	// Dispatcher delivers lifecycle notifications best effort
	Dispatcher notification.Dispatcher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	clk clock.Clock,
	subRepo subscription.Repository,
	planRepo plan.Repository,
	eventRepo subscription.EventRepository,
	prorationRepo proration.Repository,
	dispatcher notification.Dispatcher,
) ServiceParams {
	return ServiceParams{
		Logger:        logger,
		Config:        config,
		Clock:         clk,
		SubRepo:       subRepo,
		PlanRepo:      planRepo,
		EventRepo:     eventRepo,
		ProrationRepo: prorationRepo,
		Dispatcher:    dispatcher,
	}
}
