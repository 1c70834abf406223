package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

func sweepCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Materialize recurring payments due on or before a date",
		Long: `Run one recurring-payment sweep. Each due payment advances by exactly
one period, so catching up on missed days takes one sweep per period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			today, err := sweepDate(date, a.cfg.Location)
			if err != nil {
				return err
			}

			count, err := services.NewRecurringProcessor(a.backend.Store, a.backend.Publisher).
				ProcessDuePayments(cmd.Context(), today)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transaction(s) created for %s\n", count, today)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "sweep date as YYYY-MM-DD (default: today in the scheduler timezone)")
	return cmd
}

func sweepDate(flag string, location func() (*time.Location, error)) (core.Date, error) {
	if flag != "" {
		return core.ParseDate(flag)
	}
	loc, err := location()
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(time.Now().In(loc)), nil
}
