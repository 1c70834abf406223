package services

import (
	"context"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/core"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// publishEvent never fails the caller: the transaction is already stored.
func publishEvent(ctx context.Context, p EventPublisher, kind amqp.EventKind, t core.Transaction, source amqp.Source) {
	if p == nil {
		return
	}
	if err := p.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(kind, t, source)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind,
			"transaction_id", t.ID,
			"error", err)
	}
}
