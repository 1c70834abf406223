// Package sqlite implements storage.Store on an embedded SQLite database
// (modernc.org/sqlite, no cgo). Amounts are stored as exact decimal text and
// dates as YYYY-MM-DD text so lexical order is chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

type (
	scanner interface {
		Scan(dest ...any) error
	}

	execer interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	}
)

// DSN enables foreign keys and a busy timeout on every pooled connection.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates the database file if needed and migrates it to the latest schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isConstraint(err error, code int) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == code
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func affectedOne(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// Transactions

const transactionSelect = `SELECT t.id, t.owner_id, t.type, t.category_id, c.name, t.amount, t.note,
	t.transaction_date, t.created_at
FROM transactions t JOIN categories c ON c.id = t.category_id`

const transactionOrder = ` ORDER BY t.transaction_date DESC, t.id DESC`

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                     core.Transaction
		typ, amount, date, at string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &typ, &t.CategoryID, &t.CategoryName, &amount, &t.Note, &date, &at); err != nil {
		return t, err
	}
	var err error
	t.Type = core.TransactionType(typ)
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("decode transaction %d amount: %w", t.ID, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, fmt.Errorf("decode transaction %d date: %w", t.ID, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return t, fmt.Errorf("decode transaction %d created_at: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) FindTransactions(ctx context.Context, f core.TransactionFilter, page core.PageRequest) ([]core.Transaction, int64, error) {
	p := storage.TransactionPredicates(storage.SQLite, f)

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions t JOIN categories c ON c.id = t.category_id` + p.Where()
	if err := s.db.QueryRowContext(ctx, countQuery, p.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := transactionSelect + p.Where() + transactionOrder + " LIMIT ? OFFSET ?"
	args := append(p.Args(), page.Size, page.Offset())
	items, err := s.queryTransactions(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find transactions: %w", err)
	}
	return items, total, nil
}

func (s *Store) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	p := storage.TransactionPredicates(storage.SQLite, f)
	items, err := s.queryTransactions(ctx, transactionSelect+p.Where()+transactionOrder, p.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = ?", id))
	if err != nil {
		return t, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func insertTransaction(ctx context.Context, ex execer, t core.Transaction) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, type, category_id, amount, note, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, string(t.Type), t.CategoryID, t.Amount.String(), t.Note, t.Date.String(), formatTime(t.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := insertTransaction(ctx, s.db, t)
	if err != nil {
		return t, fmt.Errorf("create transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", id, "owner_id", t.OwnerID, "amount", t.Amount.String())
	return s.GetTransaction(ctx, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, category_id = ?, amount = ?, note = ?, transaction_date = ?
		WHERE id = ?`,
		string(t.Type), t.CategoryID, t.Amount.String(), t.Note, t.Date.String(), t.ID)
	if err != nil {
		return t, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return t, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return s.GetTransaction(ctx, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// Categories

const categorySelect = `SELECT id, owner_id, name, type FROM categories`

func scanCategory(row scanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ)
	c.Type = core.TransactionType(typ)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+` WHERE owner_id = ? ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, categorySelect+` WHERE id = ?`, id))
	if err != nil {
		return c, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (s *Store) FindCategoryByName(ctx context.Context, ownerID int64, name string) (core.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		categorySelect+` WHERE owner_id = ? AND lower(name) = lower(?)`, ownerID, name))
	if err != nil {
		return c, fmt.Errorf("find category %q: %w", name, notFound(err))
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, type) VALUES (?, ?, ?)`,
		c.OwnerID, c.Name, string(c.Type))
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return c, fmt.Errorf("create category %q: %w", c.Name, storage.ErrDuplicate)
		}
		return c, fmt.Errorf("create category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return c, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return fmt.Errorf("delete category %d: %w", id, storage.ErrInUse)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// Budgets

const budgetSelect = `SELECT id, owner_id, category, month, limit_amount, warning_threshold, created_at FROM budgets`

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b                           core.Budget
		month, limit, threshold, at string
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Category, &month, &limit, &threshold, &at); err != nil {
		return b, err
	}
	var err error
	if b.Month, err = core.ParseMonth(month); err != nil {
		return b, fmt.Errorf("decode budget %d month: %w", b.ID, err)
	}
	if b.Limit, err = decimal.NewFromString(limit); err != nil {
		return b, fmt.Errorf("decode budget %d limit: %w", b.ID, err)
	}
	if b.WarningThreshold, err = decimal.NewFromString(threshold); err != nil {
		return b, fmt.Errorf("decode budget %d threshold: %w", b.ID, err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return b, fmt.Errorf("decode budget %d created_at: %w", b.ID, err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, budgetSelect+` WHERE owner_id = ? ORDER BY month, category, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx, budgetSelect+` WHERE id = ?`, id))
	if err != nil {
		return b, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return b, nil
}

func (s *Store) BudgetExists(ctx context.Context, ownerID int64, category string, month core.Month) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM budgets WHERE owner_id = ? AND lower(category) = lower(?) AND month = ?)`,
		ownerID, strings.TrimSpace(category), month.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check budget exists: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, category, month, limit_amount, warning_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.Category, b.Month.String(), b.Limit.String(), b.WarningThreshold.String(), formatTime(b.CreatedAt))
	if err != nil {
		if isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return b, fmt.Errorf("create budget %s/%s: %w", b.Category, b.Month, storage.ErrDuplicate)
		}
		return b, fmt.Errorf("create budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return b, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

// Recurring payments

const recurringSelect = `SELECT r.id, r.owner_id, r.type, r.category_id, c.name, r.amount, r.note,
	r.frequency, r.next_run, r.active
FROM recurring_payments r JOIN categories c ON c.id = r.category_id`

func scanRecurring(row scanner) (core.RecurringPayment, error) {
	var (
		r                          core.RecurringPayment
		typ, amount, freq, nextRun string
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &typ, &r.CategoryID, &r.CategoryName, &amount, &r.Note, &freq, &nextRun, &r.Active); err != nil {
		return r, err
	}
	var err error
	r.Type = core.TransactionType(typ)
	r.Frequency = core.Frequency(freq)
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return r, fmt.Errorf("decode recurring payment %d amount: %w", r.ID, err)
	}
	if r.NextRun, err = core.ParseDate(nextRun); err != nil {
		return r, fmt.Errorf("decode recurring payment %d next_run: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringPayment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.RecurringPayment
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRecurring(ctx context.Context, ownerID int64) ([]core.RecurringPayment, error) {
	out, err := s.queryRecurring(ctx, recurringSelect+` WHERE r.owner_id = ? ORDER BY r.next_run, r.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	return out, nil
}

func (s *Store) GetRecurring(ctx context.Context, id int64) (core.RecurringPayment, error) {
	r, err := scanRecurring(s.db.QueryRowContext(ctx, recurringSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return r, fmt.Errorf("get recurring payment %d: %w", id, notFound(err))
	}
	return r, nil
}

func (s *Store) CreateRecurring(ctx context.Context, r core.RecurringPayment) (core.RecurringPayment, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_payments (owner_id, type, category_id, amount, note, frequency, next_run, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OwnerID, string(r.Type), r.CategoryID, r.Amount.String(), r.Note, string(r.Frequency), r.NextRun.String(), r.Active)
	if err != nil {
		return r, fmt.Errorf("create recurring payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return r, fmt.Errorf("create recurring payment: %w", err)
	}
	return s.GetRecurring(ctx, id)
}

func (s *Store) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recurring_payments SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set recurring payment %d active: %w", id, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return fmt.Errorf("set recurring payment %d active: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment %d: %w", id, err)
	}
	if err := affectedOne(res, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete recurring payment %d: %w", id, err)
	}
	return nil
}

func (s *Store) FindDuePayments(ctx context.Context, asOf core.Date) ([]core.RecurringPayment, error) {
	out, err := s.queryRecurring(ctx,
		recurringSelect+` WHERE r.active = 1 AND r.next_run <= ? ORDER BY r.next_run, r.id`, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("find due payments: %w", err)
	}
	return out, nil
}

func (s *Store) MaterializePayment(ctx context.Context, r core.RecurringPayment, next core.Date, createdAt time.Time) (core.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin materialize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_payments SET next_run = ? WHERE id = ? AND next_run = ? AND active = 1`,
		next.String(), r.ID, r.NextRun.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("advance recurring payment %d: %w", r.ID, err)
	}
	if err := affectedOne(res, storage.ErrStale); err != nil {
		return core.Transaction{}, fmt.Errorf("advance recurring payment %d: %w", r.ID, err)
	}

	t := r.Materialize(createdAt)
	if t.ID, err = insertTransaction(ctx, tx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("materialize recurring payment %d: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit materialize: %w", err)
	}
	return t, nil
}
