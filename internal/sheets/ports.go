package sheets

import (
	"context"
	"strconv"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors transactions into an external spreadsheet,
	// one row per transaction keyed by its id.
	TransactionExporter interface {
		// Upsert writes the row for tx, replacing an existing row with the
		// same id.
		Upsert(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		// Remove clears the row for id. A missing row is not an error.
		Remove(ctx context.Context, id int64) error
	}
)

// Header is the first row of an export sheet.
var Header = []string{"ID", "Date", "Type", "Category", "Amount", "Note"}

// Row renders tx in Header order. Amounts keep their exact decimal text.
func Row(tx core.Transaction) []string {
	return []string{
		strconv.FormatInt(tx.ID, 10),
		tx.Date.String(),
		string(tx.Type),
		tx.CategoryName,
		tx.Amount.String(),
		tx.Note,
	}
}
