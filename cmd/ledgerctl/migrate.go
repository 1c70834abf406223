package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/storage/postgres"
	"ledger/internal/storage/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			switch backend.BackendType(cfg.DataBackend) {
			case backend.SQLiteBackend:
				err = sqlite.RunMigrations(sqlite.DSN(cfg.SQLiteDBPath))
			case backend.PostgresBackend:
				err = postgres.RunMigrations(cfg.PostgresURL)
			default:
				return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", cfg.DataBackend, err)
			}
			logger.Info("Migrations applied", "backend", cfg.DataBackend)
			return nil
		},
	}
}
