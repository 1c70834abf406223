package services

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage/memory"
)

func TestTransactionServiceList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	food := mustCategory(t, store, 1, "Food", core.Expense)
	salary := mustCategory(t, store, 1, "Salary", core.Income)
	otherFood := mustCategory(t, store, 2, "Food", core.Expense)

	for day := 1; day <= 25; day++ {
		mustTransaction(t, store, 1, food, core.Expense, "1", core.NewDate(2024, 3, day))
	}
	mustTransaction(t, store, 1, salary, core.Income, "3000", core.NewDate(2024, 3, 27))
	mustTransaction(t, store, 1, food, core.Expense, "1", core.NewDate(2024, 4, 1))
	mustTransaction(t, store, 2, otherFood, core.Expense, "1", core.NewDate(2024, 3, 1))

	svc := NewTransactionService(store, nil)

	page, err := svc.List(ctx, 1, FilterParams{Type: "EXPENSE", Month: "2024-03"}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, core.DefaultPageSize)
	for _, tx := range page.Items {
		assert.Equal(t, int64(1), tx.OwnerID)
		assert.Equal(t, core.Expense, tx.Type)
	}

	second, err := svc.List(ctx, 1, FilterParams{Type: "EXPENSE", Month: "2024-03"}, core.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)

	byCategory, err := svc.List(ctx, 1, FilterParams{CategoryID: salary.ID}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCategory.TotalElements)

	// Another owner's category id never leaks rows.
	leak, err := svc.List(ctx, 1, FilterParams{CategoryID: otherFood.ID}, core.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, leak.TotalElements)

	_, err = svc.List(ctx, 1, FilterParams{Month: "03-2024"}, core.PageRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = svc.List(ctx, 1, FilterParams{}, core.PageRequest{Page: math.MaxInt64/100 + 1, Size: 100})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestTransactionServiceOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	aFood := mustCategory(t, store, 1, "Food", core.Expense)
	bFood := mustCategory(t, store, 2, "Food", core.Expense)

	tx, err := svc.Create(ctx, 1, core.Transaction{
		Type: core.Expense, CategoryID: aFood.ID, Amount: dec("42.00"), Date: core.NewDate(2024, 6, 1),
	})
	require.NoError(t, err)

	t.Run("create against foreign category is forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, core.Transaction{
			Type: core.Expense, CategoryID: bFood.ID, Amount: dec("1"), Date: core.NewDate(2024, 6, 1),
		})
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("create against missing category is not found", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, core.Transaction{
			Type: core.Expense, CategoryID: 999, Amount: dec("1"), Date: core.NewDate(2024, 6, 1),
		})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, core.Transaction{Type: core.Expense, CategoryID: aFood.ID, Amount: dec("0")})
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("oversized amount is rejected before it is stored", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, core.Transaction{
			Type: core.Expense, CategoryID: aFood.ID, Amount: decimal.New(1, 100000000), Date: core.NewDate(2024, 6, 1),
		})
		assert.ErrorIs(t, err, core.ErrAmountPrecision)
	})

	t.Run("delete by another owner is forbidden and keeps the row", func(t *testing.T) {
		err := svc.Delete(ctx, 2, tx.ID)
		require.ErrorIs(t, err, core.ErrForbidden)
		assert.NotContains(t, err.Error(), "transaction")

		still, err := svc.Get(ctx, 1, tx.ID)
		require.NoError(t, err)
		assert.True(t, still.Amount.Equal(dec("42")))
	})

	t.Run("delete missing is not found", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, 1, 12345), core.ErrNotFound)
	})

	t.Run("update keeps creation time", func(t *testing.T) {
		updated, err := svc.Update(ctx, 1, tx.ID, core.Transaction{
			Type: core.Expense, CategoryID: aFood.ID, Amount: dec("40"), Note: "fixed", Date: core.NewDate(2024, 6, 2),
		})
		require.NoError(t, err)
		assert.Equal(t, tx.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "fixed", updated.Note)
		assert.Equal(t, "2024-06-02", updated.Date.String())

		_, err = svc.Update(ctx, 2, tx.ID, updated)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("owner delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, 1, tx.ID))
		_, err := svc.Get(ctx, 1, tx.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	assert.Equal(t, []amqp.EventKind{amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionDeleted}, pub.kinds())
}
