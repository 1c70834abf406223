package services

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// EvaluateBudget derives the status of b from the transactions matching its
// category and month. Only EXPENSE amounts count toward spent.
//
// Utilization is spent/limit, or 0 when the limit is 0. A budget is exceeded
// when spent is strictly above the limit, and near its limit when utilization
// reaches the warning threshold without being exceeded.
func EvaluateBudget(b core.Budget, txs []core.Transaction) core.BudgetSummary {
	spent := decimal.Zero
	for _, t := range txs {
		if t.Type == core.Expense {
			spent = spent.Add(t.Amount)
		}
	}

	utilization := decimal.Zero
	if !b.Limit.IsZero() {
		utilization = spent.Div(b.Limit)
	}
	exceeded := spent.GreaterThan(b.Limit)

	return core.BudgetSummary{
		Budget:      b,
		Spent:       spent,
		Utilization: utilization,
		Exceeded:    exceeded,
		NearLimit:   !exceeded && utilization.GreaterThanOrEqual(b.WarningThreshold),
	}
}
