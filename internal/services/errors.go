package services

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// errAccessDenied carries no detail about the resource.
var errAccessDenied = fmt.Errorf("access denied: %w", core.ErrForbidden)

// loadOwned fetches one entity and checks it belongs to ownerID: a missing
// id is NotFound, another tenant's id is Forbidden.
func loadOwned[T any](ctx context.Context, ownerID, id int64, entity string,
	get func(context.Context, int64) (T, error), ownerOf func(T) int64) (T, error) {
	var zero T
	v, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, fmt.Errorf("%s %d not found: %w", entity, id, core.ErrNotFound)
		}
		return zero, fmt.Errorf("load %s %d: %w", entity, id, err)
	}
	if ownerOf(v) != ownerID {
		return zero, errAccessDenied
	}
	return v, nil
}

func categoryOwner(c core.Category) int64 { return c.OwnerID }
func transactionOwner(t core.Transaction) int64 { return t.OwnerID }
func budgetOwner(b core.Budget) int64 { return b.OwnerID }
func recurringOwner(r core.RecurringPayment) int64 { return r.OwnerID }
