package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCategory(t *testing.T, s *Store, owner int64, name string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{OwnerID: owner, Name: name, Type: core.Expense})
	require.NoError(t, err)
	return c
}

func seedTransaction(t *testing.T, s *Store, owner int64, c core.Category, typ core.TransactionType, amount string, d core.Date) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		OwnerID:    owner,
		Type:       typ,
		CategoryID: c.ID,
		Amount:     decimal.RequireFromString(amount),
		Date:       d,
		CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return tx
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	food := seedCategory(t, s, 1, "Food")

	created := seedTransaction(t, s, 1, food, core.Expense, "0.10", core.NewDate(2024, 6, 3))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Food", created.CategoryName)
	assert.Equal(t, "0.1", created.Amount.String())
	assert.Equal(t, "2024-06-03", created.Date.String())

	created.Note = "lunch"
	created.Amount = decimal.RequireFromString("12.345")
	updated, err := s.UpdateTransaction(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "lunch", updated.Note)
	assert.Equal(t, "12.345", updated.Amount.String())
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.DeleteTransaction(ctx, created.ID))
	_, err = s.GetTransaction(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, created.ID), storage.ErrNotFound)
}

func TestFindTransactionsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	food := seedCategory(t, s, 1, "Food")
	rent := seedCategory(t, s, 1, "Rent")
	other := seedCategory(t, s, 2, "Food")

	for day := 1; day <= 5; day++ {
		seedTransaction(t, s, 1, food, core.Expense, "10", core.NewDate(2024, 6, day))
	}
	seedTransaction(t, s, 1, rent, core.Expense, "900", core.NewDate(2024, 6, 1))
	seedTransaction(t, s, 1, food, core.Income, "5", core.NewDate(2024, 6, 2))
	seedTransaction(t, s, 1, food, core.Expense, "10", core.NewDate(2024, 5, 31))
	seedTransaction(t, s, 2, other, core.Expense, "10", core.NewDate(2024, 6, 1))

	june := core.Month{Year: 2024, Month: 6}.Range()
	filter := core.TransactionFilter{OwnerID: 1, Type: core.Expense, CategoryID: food.ID, Range: &june}

	page, total, err := s.FindTransactions(ctx, filter, core.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "2024-06-05", page[0].Date.String())
	assert.Equal(t, "2024-06-04", page[1].Date.String())

	last, _, err := s.FindTransactions(ctx, filter, core.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "2024-06-01", last[0].Date.String())

	byName, err := s.ListTransactions(ctx, core.TransactionFilter{OwnerID: 1, CategoryName: "fOOd"})
	require.NoError(t, err)
	assert.Len(t, byName, 7)

	all, err := s.ListTransactions(ctx, core.TransactionFilter{OwnerID: 2})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCategoryConstraints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	food := seedCategory(t, s, 1, "Groceries")

	_, err := s.CreateCategory(ctx, core.Category{OwnerID: 1, Name: "GROCERIES", Type: core.Expense})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = s.CreateCategory(ctx, core.Category{OwnerID: 2, Name: "Groceries", Type: core.Expense})
	assert.NoError(t, err)

	found, err := s.FindCategoryByName(ctx, 1, "groceries")
	require.NoError(t, err)
	assert.Equal(t, food.ID, found.ID)

	seedTransaction(t, s, 1, food, core.Expense, "1", core.NewDate(2024, 1, 1))
	assert.ErrorIs(t, s.DeleteCategory(ctx, food.ID), storage.ErrInUse)
	assert.ErrorIs(t, s.DeleteCategory(ctx, 9999), storage.ErrNotFound)
}

func TestBudgetUniqueIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	may := core.Month{Year: 2024, Month: 5}

	b, err := s.CreateBudget(ctx, core.Budget{
		OwnerID: 1, Category: "Food", Month: may,
		Limit: decimal.NewFromInt(500), WarningThreshold: core.DefaultWarningThreshold,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	exists, err := s.BudgetExists(ctx, 1, "food", may)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.CreateBudget(ctx, core.Budget{
		OwnerID: 1, Category: "food", Month: may,
		Limit: decimal.NewFromInt(1), WarningThreshold: core.DefaultWarningThreshold,
		CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	got, err := s.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05", got.Month.String())
	assert.True(t, got.WarningThreshold.Equal(core.DefaultWarningThreshold))
}

func TestMaterializePaymentAdvancesOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	subs := seedCategory(t, s, 1, "Subscriptions")

	r, err := s.CreateRecurring(ctx, core.RecurringPayment{
		OwnerID: 1, Type: core.Expense, CategoryID: subs.ID,
		Amount: decimal.RequireFromString("9.99"), Frequency: core.Monthly,
		NextRun: core.NewDate(2024, 1, 31), Active: true,
	})
	require.NoError(t, err)

	due, err := s.FindDuePayments(ctx, core.NewDate(2024, 2, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)

	tx, err := s.MaterializePayment(ctx, due[0], core.NewDate(2024, 2, 29), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", tx.Date.String())

	// A second materialization of the same snapshot must not apply.
	_, err = s.MaterializePayment(ctx, due[0], core.NewDate(2024, 2, 29), time.Now())
	assert.ErrorIs(t, err, storage.ErrStale)

	got, err := s.GetRecurring(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.NextRun.String())

	txs, err := s.ListTransactions(ctx, core.TransactionFilter{OwnerID: 1})
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	require.NoError(t, s.SetRecurringActive(ctx, r.ID, false))
	due, err = s.FindDuePayments(ctx, core.NewDate(2030, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestConcurrentBudgetCreateKeepsOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	june := core.Month{Year: 2024, Month: 6}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateBudget(ctx, core.Budget{
				OwnerID: 1, Category: "Food", Month: june,
				Limit: decimal.NewFromInt(10), WarningThreshold: core.DefaultWarningThreshold,
				CreatedAt: time.Now(),
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	}
	assert.Equal(t, 1, ok)

	budgets, err := s.ListBudgets(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}
