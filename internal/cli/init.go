// Package cli provides common CLI initialization utilities shared by
// cmd/ledger, cmd/export-worker, cmd/recurring-worker and cmd/ledgerctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/backend"
	"ledger/internal/config"
	"ledger/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// NewLogger builds the process logger from configuration and installs it
// as the slog default.
func NewLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env, configuration and the logger. configFile may be empty.
func Bootstrap(configFile, component string, logOut io.Writer) (*config.Config, *log.Logger, error) {
	LoadEnvFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := NewLogger(cfg, component, logOut)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// MustBootstrap is Bootstrap for main functions: failures exit the process.
func MustBootstrap(component string) (*config.Config, *log.Logger) {
	cfg, logger, err := Bootstrap("", component, os.Stdout)
	if err != nil {
		if logger == nil {
			fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
			os.Exit(1)
		}
		Fatal(logger, "Configuration validation failed", err)
	}
	return cfg, logger
}

// OpenBackend opens the configured store and optional publisher.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, bcfg)
}

// Fatal logs err and exits.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ShutdownContext bounds cleanup work after the main context is cancelled.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
