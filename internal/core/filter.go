package core

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TransactionFilter is a conjunction of optional predicates, always scoped
// to one owner. Zero values mean "any".
type TransactionFilter struct {
	OwnerID      int64
	Type         TransactionType
	CategoryID   int64
	CategoryName string // case-insensitive
	Range        *DateRange
}

// Matches reports whether t satisfies every predicate of the filter.
func (f TransactionFilter) Matches(t Transaction) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if f.CategoryName != "" && !strings.EqualFold(t.CategoryName, f.CategoryName) {
		return false
	}
	if f.Range != nil && !f.Range.Contains(t.Date) {
		return false
	}
	return true
}

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
}

// Normalize applies the default size and caps it at maxSize.
func (p PageRequest) Normalize(defaultSize, maxSize int) (PageRequest, error) {
	if p.Page < 0 {
		return p, Invalid("page", "must not be negative")
	}
	if p.Size < 0 {
		return p, Invalid("size", "must not be negative")
	}
	if p.Size == 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	if p.Size > 0 && p.Page > math.MaxInt32/p.Size {
		return p, Invalid("page", "is out of range")
	}
	return p, nil
}

func (p PageRequest) Offset() int { return p.Page * p.Size }

// Page is one slice of a larger ordered result set.
type Page[T any] struct {
	Items         []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:         items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
