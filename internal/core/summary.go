package core

import "github.com/shopspring/decimal"

// BudgetSummary is a budget with its spend computed at read time. It is
// never persisted.
type BudgetSummary struct {
	Budget `yaml:",inline"`

	Spent       decimal.Decimal `json:"spent"`
	Utilization decimal.Decimal `json:"utilization"`
	Exceeded    bool            `json:"exceeded"`
	NearLimit   bool            `json:"nearLimit"`
}

// MonthlyReportItem is the expense total of one month key.
type MonthlyReportItem struct {
	Month string          `json:"month" yaml:"month"`
	Total decimal.Decimal `json:"total" yaml:"total"`
}

// CategoryReportItem is the expense total of one category display name.
type CategoryReportItem struct {
	Category string          `json:"category" yaml:"category"`
	Total    decimal.Decimal `json:"total" yaml:"total"`
}
