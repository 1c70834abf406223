package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/services"
)

// csvTransaction is one exported CSV line.
type csvTransaction struct {
	ID       int64  `csv:"id"`
	Date     string `csv:"date"`
	Type     string `csv:"type"`
	Category string `csv:"category"`
	Amount   string `csv:"amount"`
	Note     string `csv:"note"`
}

func toCSV(txs []core.Transaction) []csvTransaction {
	out := make([]csvTransaction, len(txs))
	for i, t := range txs {
		out[i] = csvTransaction{
			ID:       t.ID,
			Date:     t.Date.String(),
			Type:     string(t.Type),
			Category: t.CategoryName,
			Amount:   t.Amount.String(),
			Note:     t.Note,
		}
	}
	return out
}

func writeTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	return gocsv.Marshal(toCSV(txs), w)
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Work with transactions",
	}

	var (
		owner  int64
		params services.FilterParams
		output string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Export matching transactions as CSV, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := services.BuildFilter(owner, params)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			txs, err := a.backend.Store.ListTransactions(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeTransactionsCSV(w, txs); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			a.logger.Info("Transactions exported", "count", len(txs), "output", output)
			return nil
		},
	}
	export.Flags().Int64Var(&owner, "owner", 0, "owner id (required)")
	export.Flags().StringVar(&params.Type, "type", "", "INCOME or EXPENSE")
	export.Flags().Int64Var(&params.CategoryID, "category-id", 0, "limit to one category")
	export.Flags().StringVar(&params.Month, "month", "", "limit to one month, YYYY-MM")
	export.Flags().StringVar(&output, "output", "-", "file to write, - for stdout")
	_ = export.MarkFlagRequired("owner")

	cmd.AddCommand(export)
	return cmd
}
