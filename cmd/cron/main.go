package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openams/openams/internal/clock"
	"github.com/openams/openams/internal/config"
	"github.com/openams/openams/internal/dto"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/notification"
	"github.com/openams/openams/internal/repository"
	"github.com/openams/openams/internal/service"
	"github.com/robfig/cron/v3"
)

func init() {
	time.Local = time.UTC
}

// cmd/cron runs the daily lifecycle scans on a schedule instead of relying
// on an external trigger hitting the /cron endpoints.
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}

	clk := clock.New()
	dispatcher := notification.NewLogDispatcher(log)
	planRepo := repository.NewPlanRepository(log)
	subRepo := repository.NewSubscriptionRepository(planRepo, log)
	eventRepo := repository.NewLifecycleEventRepository(log)
	prorationRepo := repository.NewProrationRepository(log)

	params := service.NewServiceParams(log, cfg, clk, subRepo, planRepo, eventRepo, prorationRepo, dispatcher)
	resolver := service.NewPolicyResolver(params)
	scheduler := service.NewLifecycleScheduler(params, resolver)
	dunningSvc := service.NewDunningService(params)

	subscriptionSvc, err := service.NewSubscriptionService(params, resolver)
	if err != nil {
		log.Fatalf("failed to initialize subscription service: %v", err)
	}
	planner := service.NewRenewalPlanner(params, subscriptionSvc)

	c := cron.New()
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (*dto.ScanResponse, error)
	}{
		{"grace_scan", cfg.Scheduler.GraceScan, scheduler.RunGraceScan},
		{"suspension_scan", cfg.Scheduler.SuspensionScan, scheduler.RunSuspensionScan},
		{"termination_scan", cfg.Scheduler.TerminationScan, scheduler.RunTerminationScan},
		{"renewal_scan", cfg.Scheduler.RenewalScan, planner.RunRenewalScan},
		{"dunning_retry_scan", cfg.Scheduler.DunningRetryScan, dunningSvc.RunDunningRetryScan},
	}
	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.spec, func() {
			runScan(log, job.name, job.run)
		})
		if err != nil {
			log.Fatalf("invalid cron expression for %s: %v", job.name, err)
		}
		log.Infow("registered scan job", "job", job.name, "schedule", job.spec)
	}

	c.Start()
	log.Info("scan scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scan scheduler")
	<-c.Stop().Done()
}

func runScan(log *logger.Logger, name string, run func(context.Context) (*dto.ScanResponse, error)) {
	ctx := context.Background()
	report, err := run(ctx)
	if err != nil {
		log.Errorw("scan failed", "job", name, "error", err)
		return
	}
	log.Infow("scan completed",
		"job", name,
		"run_id", report.RunID,
		"processed", report.Processed,
		"transitioned", report.Transitioned,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
}
