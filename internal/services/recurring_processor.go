package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage"
)

// RecurringProcessor materializes due recurring payments into transactions.
type RecurringProcessor struct {
	store     storage.RecurringStore
	publisher EventPublisher
	now       func() time.Time
}

// NewRecurringProcessor creates a processor; publisher may be nil.
func NewRecurringProcessor(store storage.RecurringStore, publisher EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// ProcessDuePayments runs one sweep as of today. Each due payment yields one
// transaction dated at its current next run, then advances by one period
// only, so a payment several periods behind catches up one period per sweep.
// A failing payment is logged and left due for the next sweep; it does not
// stop the others. The count of materialized payments is returned.
func (p *RecurringProcessor) ProcessDuePayments(ctx context.Context, today core.Date) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	due, err := p.store.FindDuePayments(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("find due payments: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring payments",
		"due", len(due),
		"processing_date", today.String())

	processed := 0
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		tx, err := p.processOne(ctx, r)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, storage.ErrStale) {
				level = slog.LevelWarn
			}
			slog.Log(ctx, level, "Failed to materialize recurring payment",
				"payment_id", r.ID,
				"owner_id", r.OwnerID,
				"next_run", r.NextRun.String(),
				"error", err)
			continue
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring payment",
			"payment_id", r.ID,
			"transaction_id", tx.ID,
			"transaction_date", tx.Date.String(),
			"frequency", r.Frequency)
		publishEvent(ctx, p.publisher, amqp.TransactionCreated, tx, amqp.SourceRecurring)
	}

	slog.InfoContext(ctx, "Recurring payment processing complete",
		"processed", processed,
		"total_due", len(due))
	return processed, nil
}

func (p *RecurringProcessor) processOne(ctx context.Context, r core.RecurringPayment) (core.Transaction, error) {
	next, err := NextRun(r.NextRun, r.Frequency)
	if err != nil {
		return core.Transaction{}, err
	}
	return p.store.MaterializePayment(ctx, r, next, p.now().UTC())
}
