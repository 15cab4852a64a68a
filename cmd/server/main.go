package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openams/openams/internal/api"
	"github.com/openams/openams/internal/api/cron"
	v1 "github.com/openams/openams/internal/api/v1"
	"github.com/openams/openams/internal/clock"
	"github.com/openams/openams/internal/config"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/notification"
	"github.com/openams/openams/internal/repository"
	"github.com/openams/openams/internal/service"
	"go.uber.org/fx"
)

func init() {
	// All engine dates are UTC day-granular
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Clock
			clock.New,

			// Notification dispatcher
			notification.NewLogDispatcher,

			// Repositories
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewLifecycleEventRepository,
			repository.NewProrationRepository,
		),
		fx.Provide(
			service.NewServiceParams,
			service.NewPolicyResolver,
			service.NewSubscriptionService,
			service.NewPlanService,
			service.NewLifecycleScheduler,
			service.NewDunningService,
			provideRenewalPlanner,
		),
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideRenewalPlanner(params service.ServiceParams, subscriptionService service.SubscriptionService) service.RenewalPlanner {
	return service.NewRenewalPlanner(params, subscriptionService)
}

func provideHandlers(
	log *logger.Logger,
	subscriptionService service.SubscriptionService,
	planService service.PlanService,
	planner service.RenewalPlanner,
	scheduler service.LifecycleScheduler,
	dunningService service.DunningService,
) api.Handlers {
	return api.Handlers{
		Subscription: v1.NewSubscriptionHandler(subscriptionService, planner, log),
		Plan:         v1.NewPlanHandler(planService, log),
		Lifecycle:    cron.NewLifecycleHandler(scheduler, log),
		Billing:      cron.NewBillingHandler(planner, dunningService, log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infof("starting server on %s", cfg.Server.Address)
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}
