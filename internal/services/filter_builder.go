package services

import (
	"strings"

	"ledger/internal/core"
)

// FilterParams is the raw, optional caller input of a transaction query.
type FilterParams struct {
	Type       string
	CategoryID int64
	Month      string
}

// BuildFilter turns caller input into an owner-scoped filter. A malformed
// type or month fails with core.ErrInvalidArgument.
func BuildFilter(ownerID int64, p FilterParams) (core.TransactionFilter, error) {
	f := core.TransactionFilter{OwnerID: ownerID}

	if strings.TrimSpace(p.Type) != "" {
		t, err := core.ParseTransactionType(p.Type)
		if err != nil {
			return f, err
		}
		f.Type = t
	}

	if p.CategoryID < 0 {
		return f, core.Invalid("categoryId", "must be positive")
	}
	f.CategoryID = p.CategoryID

	if p.Month != "" {
		m, err := core.ParseMonth(p.Month)
		if err != nil {
			return f, err
		}
		r := m.Range()
		f.Range = &r
	}
	return f, nil
}
