package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

type budgetRow struct {
	ID          int64           `json:"id" yaml:"id"`
	Category    string          `json:"category" yaml:"category"`
	Month       string          `json:"month" yaml:"month"`
	Limit       decimal.Decimal `json:"limitAmount" yaml:"limit"`
	Spent       decimal.Decimal `json:"spent" yaml:"spent"`
	Utilization decimal.Decimal `json:"utilization" yaml:"utilization"`
	Status      string          `json:"status" yaml:"status"`
}

type budgetList []budgetRow

func newBudgetList(in []core.BudgetSummary) budgetList {
	out := make(budgetList, len(in))
	for i, s := range in {
		status := "ok"
		switch {
		case s.Exceeded:
			status = "exceeded"
		case s.NearLimit:
			status = "near limit"
		}
		out[i] = budgetRow{
			ID:          s.ID,
			Category:    s.Category,
			Month:       s.Month.String(),
			Limit:       s.Limit,
			Spent:       s.Spent,
			Utilization: s.Utilization,
			Status:      status,
		}
	}
	return out
}

func (budgetList) header() []string {
	return []string{"ID", "CATEGORY", "MONTH", "LIMIT", "SPENT", "USED", "STATUS"}
}

func (l budgetList) rows() [][]string {
	out := make([][]string, len(l))
	for i, b := range l {
		out[i] = []string{
			fmt.Sprint(b.ID),
			b.Category,
			b.Month,
			b.Limit.String(),
			b.Spent.String(),
			b.Utilization.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%",
			b.Status,
		}
	}
	return out
}

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Inspect budgets",
	}

	var (
		owner  int64
		format string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets with spend, utilization and limit status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			summaries, err := services.NewBudgetService(a.backend.Store).ListWithStatus(cmd.Context(), owner)
			if err != nil {
				return fmt.Errorf("list budgets: %w", err)
			}
			return render(cmd.OutOrStdout(), format, newBudgetList(summaries))
		},
	}
	list.Flags().Int64Var(&owner, "owner", 0, "owner id (required)")
	list.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	_ = list.MarkFlagRequired("owner")

	cmd.AddCommand(list)
	return cmd
}
