package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
)

var (
	cfgFile string
	version = "dev"
)

// app is what every subcommand needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Administer a personal finance ledger",
		Long:          "ledgerctl runs migrations, recurring-payment sweeps and reports against the configured ledger store.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ledger.yaml or $LEDGER_CONFIG)")

	root.AddCommand(migrateCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(budgetsCmd())
	root.AddCommand(transactionsCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig logs to stderr so command output on stdout stays machine readable.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, logger, err := cli.Bootstrap(cfgFile, log.ComponentCLI, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, logger, nil
}

// openApp loads configuration and opens the backend. Callers must close it.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return &app{cfg: cfg, logger: logger, backend: be}, nil
}

func (a *app) close() {
	if err := a.backend.Cleanup(); err != nil {
		a.logger.Error("Backend cleanup failed", log.FieldError, err)
	}
}
