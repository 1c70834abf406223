package services

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

const (
	DefaultMonthsBack = 6
	MaxMonthsBack     = 120
)

type ReportService struct {
	store storage.TransactionStore
	now   func() time.Time
}

// NewReportService uses now to decide what "today" is; nil means time.Now.
func NewReportService(store storage.TransactionStore, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{store: store, now: now}
}

// MonthlyWindow spans from the first day of the month monthsBack-1 months
// before today through today, inclusive.
func MonthlyWindow(today core.Date, monthsBack int) core.DateRange {
	first := core.MonthOf(today).AddMonths(-(monthsBack - 1)).FirstDay()
	return core.DateRange{From: first, To: today}
}

// Monthly returns expense totals for each month of the trailing window that
// has at least one expense. monthsBack of 0 means DefaultMonthsBack.
func (s *ReportService) Monthly(ctx context.Context, ownerID int64, monthsBack int) ([]core.MonthlyReportItem, error) {
	if monthsBack == 0 {
		monthsBack = DefaultMonthsBack
	}
	if monthsBack < 1 || monthsBack > MaxMonthsBack {
		return nil, core.Invalid("monthsBack", fmt.Sprintf("must be between 1 and %d", MaxMonthsBack))
	}

	window := MonthlyWindow(core.DateOf(s.now()), monthsBack)
	txs, err := s.store.ListTransactions(ctx, core.TransactionFilter{
		OwnerID: ownerID,
		Type:    core.Expense,
		Range:   &window,
	})
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	return SumByMonth(txs), nil
}

// ByCategory returns expense totals per category, optionally limited to one
// "YYYY-MM" month. An empty month covers all time.
func (s *ReportService) ByCategory(ctx context.Context, ownerID int64, month string) ([]core.CategoryReportItem, error) {
	f, err := BuildFilter(ownerID, FilterParams{Month: month})
	if err != nil {
		return nil, err
	}
	f.Type = core.Expense

	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("category report: %w", err)
	}
	return SumByCategory(txs), nil
}

// SpendingTrend is the monthly report under another name.
func (s *ReportService) SpendingTrend(ctx context.Context, ownerID int64, monthsBack int) ([]core.MonthlyReportItem, error) {
	return s.Monthly(ctx, ownerID, monthsBack)
}
