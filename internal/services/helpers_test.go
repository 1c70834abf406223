package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCategory(t *testing.T, store *memory.Store, owner int64, name string, typ core.TransactionType) core.Category {
	t.Helper()
	c, err := NewCategoryService(store).Create(context.Background(), owner, core.Category{Name: name, Type: typ})
	require.NoError(t, err)
	return c
}

func mustTransaction(t *testing.T, store *memory.Store, owner int64, c core.Category, typ core.TransactionType, amount string, d core.Date) core.Transaction {
	t.Helper()
	tx, err := NewTransactionService(store, nil).Create(context.Background(), owner, core.Transaction{
		Type:       typ,
		CategoryID: c.ID,
		Amount:     dec(amount),
		Date:       d,
	})
	require.NoError(t, err)
	return tx
}
