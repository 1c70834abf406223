package main

import (
	"context"
	"errors"
	"flag"

	"ledger/internal/cli"
	"ledger/internal/log"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep for today and exit")
	flag.Parse()

	cfg, logger := cli.MustBootstrap(log.ComponentScheduler)
	logger.Info("Starting recurring-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	if be.Publisher == nil {
		logger.Info("AMQP disabled - generated transactions will not be exported")
	}

	scheduler, err := cli.NewRecurringScheduler(cfg, be.Store, be.Publisher)
	if err != nil {
		cli.Fatal(logger, "Failed to configure recurring scheduler", err)
	}

	if *once {
		count, err := scheduler.RunOnce(ctx)
		if err != nil {
			cli.Fatal(logger, "Sweep failed", err)
		}
		logger.Info("Sweep complete", "transactions_created", count)
		return
	}

	logger.Info("Recurring scheduler configured",
		"run_at", cfg.SchedulerRunAt,
		"timezone", cfg.SchedulerTimezone,
		"run_on_startup", cfg.SchedulerRunOnStartup)

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped with error", log.FieldError, err)
	}
	logger.Info("Recurring-worker shutdown complete")
}
