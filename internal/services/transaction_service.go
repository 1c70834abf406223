// Package services holds the ledger evaluation engine: filtered retrieval,
// aggregation, budget evaluation and the recurring payment sweep, together
// with the owner-checked entity operations around them.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage"
)

type TransactionService struct {
	store           storage.Store
	publisher       EventPublisher
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

func NewTransactionService(store storage.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:           store,
		publisher:       publisher,
		now:             time.Now,
		defaultPageSize: core.DefaultPageSize,
		maxPageSize:     core.MaxPageSize,
	}
}

// WithPageSizes overrides the default and maximum page size.
func (s *TransactionService) WithPageSizes(defaultSize, maxSize int) *TransactionService {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// List returns one page of the owner's transactions matching params.
func (s *TransactionService) List(ctx context.Context, ownerID int64, params FilterParams, page core.PageRequest) (core.Page[core.Transaction], error) {
	f, err := BuildFilter(ownerID, params)
	if err != nil {
		return core.Page[core.Transaction]{}, err
	}
	page, err = page.Normalize(s.defaultPageSize, s.maxPageSize)
	if err != nil {
		return core.Page[core.Transaction]{}, err
	}

	items, total, err := s.store.FindTransactions(ctx, f, page)
	if err != nil {
		return core.Page[core.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.NewPage(items, page, total), nil
}

// Get returns one of the owner's transactions.
func (s *TransactionService) Get(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return loadOwned(ctx, ownerID, id, "transaction", s.store.GetTransaction, transactionOwner)
}

// ownedCategory checks the referenced category exists and belongs to ownerID.
func ownedCategory(ctx context.Context, store storage.CategoryStore, ownerID, categoryID int64) (core.Category, error) {
	return loadOwned(ctx, ownerID, categoryID, "category", store.GetCategory, categoryOwner)
}

func (s *TransactionService) Create(ctx context.Context, ownerID int64, in core.Transaction) (core.Transaction, error) {
	in.ID = 0
	in.OwnerID = ownerID
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := ownedCategory(ctx, s.store, ownerID, in.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	in.CreatedAt = s.now().UTC()
	created, err := s.store.CreateTransaction(ctx, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"owner_id", ownerID,
		"type", created.Type,
		"amount", created.Amount.String())
	publishEvent(ctx, s.publisher, amqp.TransactionCreated, created, amqp.SourceAPI)
	return created, nil
}

// Update replaces the mutable fields. Owner and creation time never change.
func (s *TransactionService) Update(ctx context.Context, ownerID, id int64, in core.Transaction) (core.Transaction, error) {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	in.ID = id
	in.OwnerID = ownerID
	in.CreatedAt = existing.CreatedAt
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if in.CategoryID != existing.CategoryID {
		if _, err := ownedCategory(ctx, s.store, ownerID, in.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	updated, err := s.store.UpdateTransaction(ctx, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	publishEvent(ctx, s.publisher, amqp.TransactionUpdated, updated, amqp.SourceAPI)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id int64) error {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "owner_id", ownerID)
	publishEvent(ctx, s.publisher, amqp.TransactionDeleted, existing, amqp.SourceAPI)
	return nil
}
