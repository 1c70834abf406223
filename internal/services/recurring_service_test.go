package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/storage/memory"
)

func TestRecurringServiceCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewRecurringService(store)
	cat := mustCategory(t, store, 1, "Insurance", core.Expense)
	foreign := mustCategory(t, store, 2, "Insurance", core.Expense)

	valid := core.RecurringPayment{
		Type:       core.Expense,
		CategoryID: cat.ID,
		Amount:     dec("80"),
		Frequency:  core.Monthly,
		NextRun:    core.NewDate(2024, 7, 1),
		Active:     true,
	}

	tests := []struct {
		name   string
		mutate func(*core.RecurringPayment)
		want   error
	}{
		{"zero amount", func(r *core.RecurringPayment) { r.Amount = dec("0") }, core.ErrInvalidArgument},
		{"bad frequency", func(r *core.RecurringPayment) { r.Frequency = "HOURLY" }, core.ErrInvalidArgument},
		{"missing next run", func(r *core.RecurringPayment) { r.NextRun = core.Date{} }, core.ErrInvalidArgument},
		{"unknown category", func(r *core.RecurringPayment) { r.CategoryID = 999 }, core.ErrNotFound},
		{"foreign category", func(r *core.RecurringPayment) { r.CategoryID = foreign.ID }, core.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(ctx, 1, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	created, err := svc.Create(ctx, 1, valid)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.OwnerID)
}

func TestRecurringServiceSetActiveAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewRecurringService(store)
	cat := mustCategory(t, store, 1, "Phone", core.Expense)
	r := newRecurring(t, store, 1, cat, core.Monthly, core.NewDate(2024, 6, 1), true)

	paused, err := svc.SetActive(ctx, 1, r.ID, false)
	require.NoError(t, err)
	assert.False(t, paused.Active)

	due, err := store.FindDuePayments(ctx, core.NewDate(2024, 6, 30))
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = svc.SetActive(ctx, 2, r.ID, true)
	assert.ErrorIs(t, err, core.ErrForbidden)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)

	assert.ErrorIs(t, svc.Delete(ctx, 2, r.ID), core.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, 1, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, r.ID), core.ErrNotFound)
}
