package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

var _ sheets.TransactionExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory, keyed by transaction id.
type Exporter struct {
	mu   sync.Mutex
	rows map[int64][]string
}

func New() *Exporter {
	return &Exporter{rows: map[int64][]string{}}
}

func (e *Exporter) Upsert(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID <= 0 {
		return "", fmt.Errorf("transaction id must be positive, got %d", tx.ID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[tx.ID] = sheets.Row(tx)
	return fmt.Sprintf("mem:%d", tx.ID), nil
}

func (e *Exporter) Remove(_ context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, id)
	return nil
}

// Rows returns the exported rows ordered by transaction id.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]int64, 0, len(e.rows))
	for id := range e.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([][]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, append([]string(nil), e.rows[id]...))
	}
	return out
}
