package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	sheetsmem "ledger/internal/sheets/memory"
	"ledger/internal/storage/memory"
)

func seedTransaction(t *testing.T, store *memory.Store, owner int64) core.Transaction {
	t.Helper()
	ctx := context.Background()
	cat, err := store.CreateCategory(ctx, core.Category{OwnerID: owner, Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	tx, err := store.CreateTransaction(ctx, core.Transaction{
		OwnerID:    owner,
		Type:       core.Expense,
		CategoryID: cat.ID,
		Amount:     decimal.RequireFromString("4.20"),
		Date:       core.NewDate(2024, 6, 1),
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	return tx
}

func TestExportWorkerCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	exporter := sheetsmem.New()
	w := NewExportWorker(store, exporter)
	tx := seedTransaction(t, store, 1)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx, amqp.SourceAPI)))
	rows := exporter.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Food", rows[0][3])
	assert.Equal(t, "4.2", rows[0][4])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, tx, amqp.SourceAPI)))
	assert.Empty(t, exporter.Rows())
}

func TestExportWorkerDiscards(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewExportWorker(store, sheetsmem.New())
	tx := seedTransaction(t, store, 1)

	tests := []struct {
		name string
		ev   *amqp.TransactionEvent
	}{
		{"missing transaction", &amqp.TransactionEvent{Kind: amqp.TransactionCreated, TransactionID: 404, OwnerID: 1}},
		{"owner mismatch", &amqp.TransactionEvent{Kind: amqp.TransactionUpdated, TransactionID: tx.ID, OwnerID: 2}},
		{"unknown kind", &amqp.TransactionEvent{Kind: "transaction.archived", TransactionID: tx.ID, OwnerID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.HandleEvent(ctx, tt.ev)
			assert.ErrorIs(t, err, amqp.ErrDiscard)
		})
	}
}

type brokenExporter struct{}

func (brokenExporter) Upsert(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}
func (brokenExporter) Remove(context.Context, int64) error { return errors.New("quota exceeded") }

func TestExportWorkerRetriesExporterFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewExportWorker(store, brokenExporter{})
	tx := seedTransaction(t, store, 1)

	err := w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx, amqp.SourceRecurring))
	require.Error(t, err)
	assert.NotErrorIs(t, err, amqp.ErrDiscard)
}
