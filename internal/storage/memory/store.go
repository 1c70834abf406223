// Package memory is a process-local storage.Store used by tests and the
// memory data backend. It enforces the same uniqueness and reference rules
// as the SQL stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type budgetKey struct {
	owner    int64
	category string
	month    core.Month
}

type categoryKey struct {
	owner int64
	name  string
}

type Store struct {
	mu         sync.Mutex
	seq        int64
	txs        map[int64]core.Transaction
	categories map[int64]core.Category
	catNames   map[categoryKey]int64
	budgets    map[int64]core.Budget
	budgetKeys map[budgetKey]int64
	recurring  map[int64]core.RecurringPayment
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:        map[int64]core.Transaction{},
		categories: map[int64]core.Category{},
		catNames:   map[categoryKey]int64{},
		budgets:    map[int64]core.Budget{},
		budgetKeys: map[budgetKey]int64{},
		recurring:  map[int64]core.RecurringPayment{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func fold(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// withName fills the category display name, which the SQL stores get from a join.
func (s *Store) withName(t core.Transaction) core.Transaction {
	t.CategoryName = s.categories[t.CategoryID].Name
	return t
}

func (s *Store) matching(f core.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.txs {
		t = s.withName(t)
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) FindTransactions(_ context.Context, f core.TransactionFilter, page core.PageRequest) ([]core.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.matching(f)
	total := int64(len(all))
	start := page.Offset()
	if start < 0 || start >= len(all) {
		return nil, total, nil
	}
	end := len(all)
	if page.Size < end-start {
		end = start + page.Size
	}
	return all[start:end], total, nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matching(f), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return t, fmt.Errorf("get transaction %d: %w", id, storage.ErrNotFound)
	}
	return s.withName(t), nil
}

func (s *Store) insertTransaction(t core.Transaction) core.Transaction {
	t.ID = s.nextID()
	s.txs[t.ID] = t
	return s.withName(t)
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[t.CategoryID]; !ok {
		return t, fmt.Errorf("create transaction: category %d: %w", t.CategoryID, storage.ErrNotFound)
	}
	return s.insertTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[t.ID]
	if !ok {
		return t, fmt.Errorf("update transaction %d: %w", t.ID, storage.ErrNotFound)
	}
	t.OwnerID = old.OwnerID
	t.CreatedAt = old.CreatedAt
	s.txs[t.ID] = t
	return s.withName(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("delete transaction %d: %w", id, storage.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, ownerID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return c, fmt.Errorf("get category %d: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) FindCategoryByName(_ context.Context, ownerID int64, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.catNames[categoryKey{ownerID, fold(name)}]
	if !ok {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, storage.ErrNotFound)
	}
	return s.categories[id], nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := categoryKey{c.OwnerID, fold(c.Name)}
	if _, taken := s.catNames[key]; taken {
		return c, fmt.Errorf("create category %q: %w", c.Name, storage.ErrDuplicate)
	}
	c.ID = s.nextID()
	s.categories[c.ID] = c
	s.catNames[key] = c.ID
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return fmt.Errorf("delete category %d: %w", id, storage.ErrNotFound)
	}
	for _, t := range s.txs {
		if t.CategoryID == id {
			return fmt.Errorf("delete category %d: %w", id, storage.ErrInUse)
		}
	}
	for _, r := range s.recurring {
		if r.CategoryID == id {
			return fmt.Errorf("delete category %d: %w", id, storage.ErrInUse)
		}
	}
	delete(s.categories, id)
	delete(s.catNames, categoryKey{c.OwnerID, fold(c.Name)})
	return nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month.String() < out[j].Month.String()
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return b, fmt.Errorf("get budget %d: %w", id, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) BudgetExists(_ context.Context, ownerID int64, category string, month core.Month) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.budgetKeys[budgetKey{ownerID, fold(category), month}]
	return ok, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey{b.OwnerID, fold(b.Category), b.Month}
	if _, taken := s.budgetKeys[key]; taken {
		return b, fmt.Errorf("create budget %s/%s: %w", b.Category, b.Month, storage.ErrDuplicate)
	}
	b.ID = s.nextID()
	s.budgets[b.ID] = b
	s.budgetKeys[key] = b.ID
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return fmt.Errorf("delete budget %d: %w", id, storage.ErrNotFound)
	}
	delete(s.budgets, id)
	delete(s.budgetKeys, budgetKey{b.OwnerID, fold(b.Category), b.Month})
	return nil
}

func (s *Store) recurringWithName(r core.RecurringPayment) core.RecurringPayment {
	r.CategoryName = s.categories[r.CategoryID].Name
	return r
}

func sortRecurring(out []core.RecurringPayment) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextRun.Equal(out[j].NextRun) {
			return out[i].NextRun.Before(out[j].NextRun)
		}
		return out[i].ID < out[j].ID
	})
}

func (s *Store) ListRecurring(_ context.Context, ownerID int64) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringPayment
	for _, r := range s.recurring {
		if r.OwnerID == ownerID {
			out = append(out, s.recurringWithName(r))
		}
	}
	sortRecurring(out)
	return out, nil
}

func (s *Store) GetRecurring(_ context.Context, id int64) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok {
		return r, fmt.Errorf("get recurring payment %d: %w", id, storage.ErrNotFound)
	}
	return s.recurringWithName(r), nil
}

func (s *Store) CreateRecurring(_ context.Context, r core.RecurringPayment) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[r.CategoryID]; !ok {
		return r, fmt.Errorf("create recurring payment: category %d: %w", r.CategoryID, storage.ErrNotFound)
	}
	r.ID = s.nextID()
	s.recurring[r.ID] = r
	return s.recurringWithName(r), nil
}

func (s *Store) SetRecurringActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok {
		return fmt.Errorf("set recurring payment %d active: %w", id, storage.ErrNotFound)
	}
	r.Active = active
	s.recurring[id] = r
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return fmt.Errorf("delete recurring payment %d: %w", id, storage.ErrNotFound)
	}
	delete(s.recurring, id)
	return nil
}

func (s *Store) FindDuePayments(_ context.Context, asOf core.Date) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringPayment
	for _, r := range s.recurring {
		if r.Active && !r.NextRun.After(asOf) {
			out = append(out, s.recurringWithName(r))
		}
	}
	sortRecurring(out)
	return out, nil
}

func (s *Store) MaterializePayment(_ context.Context, r core.RecurringPayment, next core.Date, createdAt time.Time) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.recurring[r.ID]
	if !ok || !cur.Active || !cur.NextRun.Equal(r.NextRun) {
		return core.Transaction{}, fmt.Errorf("advance recurring payment %d: %w", r.ID, storage.ErrStale)
	}
	cur.NextRun = next
	s.recurring[r.ID] = cur
	return s.insertTransaction(r.Materialize(createdAt)), nil
}
