package services

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type RecurringService struct {
	store storage.Store
}

func NewRecurringService(store storage.Store) *RecurringService {
	return &RecurringService{store: store}
}

func (s *RecurringService) List(ctx context.Context, ownerID int64) ([]core.RecurringPayment, error) {
	out, err := s.store.ListRecurring(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	return out, nil
}

// Create stores a recurring payment against one of the owner's categories.
// Callers decide the initial active flag; the HTTP layer defaults it to true.
func (s *RecurringService) Create(ctx context.Context, ownerID int64, in core.RecurringPayment) (core.RecurringPayment, error) {
	in.ID = 0
	in.OwnerID = ownerID
	if err := in.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}
	if _, err := ownedCategory(ctx, s.store, ownerID, in.CategoryID); err != nil {
		return core.RecurringPayment{}, err
	}

	created, err := s.store.CreateRecurring(ctx, in)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("create recurring payment: %w", err)
	}
	slog.InfoContext(ctx, "Recurring payment created",
		"payment_id", created.ID,
		"owner_id", ownerID,
		"frequency", created.Frequency,
		"next_run", created.NextRun.String())
	return created, nil
}

// SetActive pauses or resumes a payment. Inactive payments are never due.
func (s *RecurringService) SetActive(ctx context.Context, ownerID, id int64, active bool) (core.RecurringPayment, error) {
	r, err := loadOwned(ctx, ownerID, id, "recurring payment", s.store.GetRecurring, recurringOwner)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	if err := s.store.SetRecurringActive(ctx, id, active); err != nil {
		return core.RecurringPayment{}, fmt.Errorf("set recurring payment active: %w", err)
	}
	r.Active = active
	return r, nil
}

func (s *RecurringService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := loadOwned(ctx, ownerID, id, "recurring payment", s.store.GetRecurring, recurringOwner); err != nil {
		return err
	}
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	return nil
}
