package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

type monthlyReport []core.MonthlyReportItem

func (monthlyReport) header() []string { return []string{"MONTH", "TOTAL"} }

func (r monthlyReport) rows() [][]string {
	out := make([][]string, len(r))
	for i, item := range r {
		out[i] = []string{item.Month, item.Total.String()}
	}
	return out
}

type categoryReport []core.CategoryReportItem

func (categoryReport) header() []string { return []string{"CATEGORY", "TOTAL"} }

func (r categoryReport) rows() [][]string {
	out := make([][]string, len(r))
	for i, item := range r {
		out[i] = []string{item.Category, item.Total.String()}
	}
	return out
}

func reportCmd() *cobra.Command {
	var (
		owner  int64
		format string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Expense reports for one owner",
	}
	cmd.PersistentFlags().Int64Var(&owner, "owner", 0, "owner id (required)")
	cmd.PersistentFlags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	_ = cmd.MarkPersistentFlagRequired("owner")

	var monthsBack int
	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Expense totals per month over a trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			items, err := services.NewReportService(a.backend.Store, time.Now).Monthly(cmd.Context(), owner, monthsBack)
			if err != nil {
				return fmt.Errorf("monthly report: %w", err)
			}
			return render(cmd.OutOrStdout(), format, monthlyReport(items))
		},
	}
	monthly.Flags().IntVar(&monthsBack, "months-back", services.DefaultMonthsBack, "number of months including the current one")

	var month string
	category := &cobra.Command{
		Use:   "category",
		Short: "Expense totals per category, for one month or all time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			items, err := services.NewReportService(a.backend.Store, time.Now).ByCategory(cmd.Context(), owner, month)
			if err != nil {
				return fmt.Errorf("category report: %w", err)
			}
			return render(cmd.OutOrStdout(), format, categoryReport(items))
		},
	}
	category.Flags().StringVar(&month, "month", "", "limit to one month, YYYY-MM")

	cmd.AddCommand(monthly, category)
	return cmd
}
