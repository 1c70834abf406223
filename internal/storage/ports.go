// Package storage defines the ledger store contract shared by the sqlite,
// postgres and memory implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"ledger/internal/core"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInUse     = errors.New("record is still referenced")
	// ErrStale means a recurring payment changed between being read as due
	// and being materialized.
	ErrStale = errors.New("stale record")
)

type (
	TransactionStore interface {
		// FindTransactions returns one page of matching transactions ordered by
		// date then id, newest first, plus the total number of matches.
		FindTransactions(ctx context.Context, f core.TransactionFilter, page core.PageRequest) ([]core.Transaction, int64, error)
		// ListTransactions returns every matching transaction in the same order.
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// FindCategoryByName matches name case-insensitively within one owner.
		FindCategoryByName(ctx context.Context, ownerID int64, name string) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		BudgetExists(ctx context.Context, ownerID int64, category string, month core.Month) (bool, error)
		// CreateBudget returns ErrDuplicate when (owner, lower(category), month)
		// is already taken, even if a prior BudgetExists said otherwise.
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	RecurringStore interface {
		ListRecurring(ctx context.Context, ownerID int64) ([]core.RecurringPayment, error)
		GetRecurring(ctx context.Context, id int64) (core.RecurringPayment, error)
		CreateRecurring(ctx context.Context, r core.RecurringPayment) (core.RecurringPayment, error)
		SetRecurringActive(ctx context.Context, id int64, active bool) error
		DeleteRecurring(ctx context.Context, id int64) error
		// FindDuePayments returns active payments with next run on or before asOf,
		// across all owners.
		FindDuePayments(ctx context.Context, asOf core.Date) ([]core.RecurringPayment, error)
		// MaterializePayment atomically inserts the transaction for r.NextRun and
		// moves the payment to next. It returns ErrStale if the stored next run
		// no longer equals r.NextRun or the payment was deactivated.
		MaterializePayment(ctx context.Context, r core.RecurringPayment, next core.Date, createdAt time.Time) (core.Transaction, error)
	}

	Store interface {
		TransactionStore
		CategoryStore
		BudgetStore
		RecurringStore
		Ping(ctx context.Context) error
		Close() error
	}
)
