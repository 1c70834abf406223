package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentApp)

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

	svc := apphttp.NewServices(be.Store, be.Publisher, time.Now)
	svc.Transactions.WithPageSizes(cfg.PageSizeDefault, cfg.PageSizeMax)
	svc.Budgets.WithDefaultThreshold(cfg.BudgetDefaultThreshold)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger.WithComponent(log.ComponentHTTP),
		Ready:          be.Store.Ping,
	})

	var scheduler *worker.Scheduler
	if cfg.SchedulerEnabled {
		scheduler, err = cli.NewRecurringScheduler(cfg, be.Store, be.Publisher)
		if err != nil {
			cli.Fatal(logger, "Failed to configure recurring scheduler", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if scheduler != nil {
		logger.Info("Recurring scheduler enabled", "run_at", cfg.SchedulerRunAt, "timezone", cfg.SchedulerTimezone)
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}
