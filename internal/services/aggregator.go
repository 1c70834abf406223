package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// SumByMonth totals EXPENSE amounts per "YYYY-MM" key. Months without
// expenses are absent from the result, which is sorted by month.
func SumByMonth(txs []core.Transaction) []core.MonthlyReportItem {
	totals := map[string]decimal.Decimal{}
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		key := core.MonthOf(t.Date).String()
		totals[key] = totals[key].Add(t.Amount)
	}

	out := make([]core.MonthlyReportItem, 0, len(totals))
	for month, total := range totals {
		out = append(out, core.MonthlyReportItem{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// SumByCategory totals EXPENSE amounts per category display name, sorted
// by name (byte order, so case-sensitive).
func SumByCategory(txs []core.Transaction) []core.CategoryReportItem {
	totals := map[string]decimal.Decimal{}
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		totals[t.CategoryName] = totals[t.CategoryName].Add(t.Amount)
	}

	out := make([]core.CategoryReportItem, 0, len(totals))
	for name, total := range totals {
		out = append(out, core.CategoryReportItem{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
