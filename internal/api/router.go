package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openams/openams/internal/api/cron"
	v1 "github.com/openams/openams/internal/api/v1"
	"github.com/openams/openams/internal/rest/middleware"
)

type Handlers struct {
	Subscription *v1.SubscriptionHandler
	Plan         *v1.PlanHandler
	Lifecycle    *cron.LifecycleHandler
	Billing      *cron.BillingHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	// cron trigger routes for the host scheduler
	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.ListPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/activate", handlers.Subscription.ActivateSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/suspend", handlers.Subscription.SuspendSubscription)
		subscriptions.POST("/:id/terminate", handlers.Subscription.TerminateSubscription)
		subscriptions.POST("/:id/reactivate", handlers.Subscription.ReactivateSubscription)
		subscriptions.POST("/:id/payments", handlers.Subscription.RecordPaymentResult)
		subscriptions.POST("/:id/change-plan", handlers.Subscription.ChangePlan)
		subscriptions.GET("/:id/renewal", handlers.Subscription.PreviewRenewal)
		subscriptions.POST("/:id/renewal/confirm", handlers.Subscription.ConfirmRenewal)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("/grace-scan", handlers.Lifecycle.RunGraceScan)
		subscriptions.POST("/suspension-scan", handlers.Lifecycle.RunSuspensionScan)
		subscriptions.POST("/termination-scan", handlers.Lifecycle.RunTerminationScan)
		subscriptions.POST("/renewal-scan", handlers.Billing.RunRenewalScan)
		subscriptions.POST("/dunning-retry-scan", handlers.Billing.RunDunningRetryScan)
	}
}
