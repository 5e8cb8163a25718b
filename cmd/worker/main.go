package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/delivery/internal/activity"
	"github.com/edvin/delivery/internal/config"
	"github.com/edvin/delivery/internal/db"
	"github.com/edvin/delivery/internal/logging"
	"github.com/edvin/delivery/internal/metrics"
	"github.com/edvin/delivery/internal/workflow"
)

const taskQueue = "delivery-tasks"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics(corePool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, taskQueue, worker.Options{})

	// Register activities
	coreDBActivities := activity.NewCoreDB(corePool)
	w.RegisterActivity(coreDBActivities)

	// Register workflows
	w.RegisterWorkflow(workflow.LicenseExpiryScanWorkflow)

	if cfg.MetricsListenAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsListenAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	// Register cron schedules. Errors for already-existing schedules are
	// ignored so that re-deploys do not fail.
	registerCronSchedules(ctx, tc, taskQueue, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

type cronSchedule struct {
	id       string
	cron     string
	workflow interface{}
	args     []interface{}
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, taskQueue string, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			id:       "license-expiry-scan-cron",
			cron:     "0 6 * * *",
			workflow: workflow.LicenseExpiryScanWorkflow,
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: taskQueue,
			},
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
				logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
			} else {
				logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
			}
		} else {
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		}
	}
}
