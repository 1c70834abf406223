package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

// ExportWorker mirrors transaction events into a spreadsheet.
type ExportWorker struct {
	store    storage.TransactionStore
	exporter sheets.TransactionExporter
}

func NewExportWorker(store storage.TransactionStore, exporter sheets.TransactionExporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter}
}

// HandleEvent processes one event from the queue. Events whose transaction
// no longer exists, or no longer belongs to the event's owner, are discarded
// rather than retried; a later delete event cleans the row up.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"message_id", ev.MessageID,
		"kind", ev.Kind,
		"transaction_id", ev.TransactionID,
		"source", ev.Source)

	switch ev.Kind {
	case amqp.TransactionDeleted:
		if err := w.exporter.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove exported row: %w", err)
		}
		slog.InfoContext(ctx, "Removed exported transaction", "transaction_id", ev.TransactionID)
		return nil

	case amqp.TransactionCreated, amqp.TransactionUpdated:
		tx, err := w.store.GetTransaction(ctx, ev.TransactionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.WarnContext(ctx, "Transaction vanished before export", "transaction_id", ev.TransactionID)
				return fmt.Errorf("transaction %d: %w", ev.TransactionID, amqp.ErrDiscard)
			}
			return fmt.Errorf("get transaction: %w", err)
		}
		if tx.OwnerID != ev.OwnerID {
			return fmt.Errorf("transaction %d owner mismatch: %w", ev.TransactionID, amqp.ErrDiscard)
		}

		ref, err := w.exporter.Upsert(ctx, tx)
		if err != nil {
			return fmt.Errorf("export transaction: %w", err)
		}
		slog.InfoContext(ctx, "Exported transaction",
			"transaction_id", tx.ID,
			"sheets_ref", ref,
			"amount", tx.Amount.String())
		return nil

	default:
		return fmt.Errorf("unknown event kind %q: %w", ev.Kind, amqp.ErrDiscard)
	}
}
