package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type BudgetService struct {
	store            storage.Store
	now              func() time.Time
	defaultThreshold decimal.Decimal
}

func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{
		store:            store,
		now:              time.Now,
		defaultThreshold: core.DefaultWarningThreshold,
	}
}

// WithDefaultThreshold sets the warning threshold applied when a budget is
// created without one. Values outside (0, 1] are ignored.
func (s *BudgetService) WithDefaultThreshold(t decimal.Decimal) *BudgetService {
	if core.ValidThreshold(t) {
		s.defaultThreshold = t
	}
	return s
}

// Create stores a budget unless the owner already has one for the same
// category name (any case) and month.
func (s *BudgetService) Create(ctx context.Context, ownerID int64, in core.Budget) (core.Budget, error) {
	in.ID = 0
	in.OwnerID = ownerID
	in.Category = strings.TrimSpace(in.Category)
	if in.WarningThreshold.IsZero() {
		in.WarningThreshold = s.defaultThreshold
	}
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}

	exists, err := s.store.BudgetExists(ctx, ownerID, in.Category, in.Month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check budget: %w", err)
	}
	if exists {
		return core.Budget{}, budgetConflict(in)
	}

	in.CreatedAt = s.now().UTC()
	created, err := s.store.CreateBudget(ctx, in)
	if err != nil {
		// Lost a race with a concurrent create that passed the same check.
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Budget{}, budgetConflict(in)
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", created.ID,
		"owner_id", ownerID,
		"category", created.Category,
		"month", created.Month.String())
	return created, nil
}

func budgetConflict(b core.Budget) error {
	return fmt.Errorf("budget for %q in %s already exists: %w", b.Category, b.Month, core.ErrConflict)
}

// ListWithStatus evaluates every budget of the owner against current data.
// Nothing is cached: each call re-reads the matching transactions.
func (s *BudgetService) ListWithStatus(ctx context.Context, ownerID int64) ([]core.BudgetSummary, error) {
	budgets, err := s.store.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]core.BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		window := b.Month.Range()
		txs, err := s.store.ListTransactions(ctx, core.TransactionFilter{
			OwnerID:      ownerID,
			Type:         core.Expense,
			CategoryName: b.Category,
			Range:        &window,
		})
		if err != nil {
			return nil, fmt.Errorf("load spend for budget %d: %w", b.ID, err)
		}
		out = append(out, EvaluateBudget(b, txs))
	}
	return out, nil
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := loadOwned(ctx, ownerID, id, "budget", s.store.GetBudget, budgetOwner); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
