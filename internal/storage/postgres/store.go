// Package postgres implements storage.Store on PostgreSQL through a pgx
// connection pool. Amounts are NUMERIC and dates are DATE columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/storage"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open connects the pool and migrates the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func affectedOne(tag pgconn.CommandTag, missing error) error {
	if tag.RowsAffected() == 0 {
		return missing
	}
	return nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, errors.New("numeric is not a finite value")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// Transactions

const transactionSelect = `SELECT t.id, t.owner_id, t.type, t.category_id, c.name, t.amount, t.note,
	t.transaction_date, t.created_at
FROM transactions t JOIN categories c ON c.id = t.category_id`

const transactionOrder = ` ORDER BY t.transaction_date DESC, t.id DESC`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t      core.Transaction
		typ    string
		amount pgtype.Numeric
		date   time.Time
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &typ, &t.CategoryID, &t.CategoryName, &amount, &t.Note, &date, &t.CreatedAt); err != nil {
		return t, err
	}
	var err error
	t.Type = core.TransactionType(typ)
	t.Date = core.DateOf(date)
	if t.Amount, err = fromNumeric(amount); err != nil {
		return t, fmt.Errorf("decode transaction %d amount: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	p := storage.TransactionPredicates(storage.Postgres, f)

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions t JOIN categories c ON c.id = t.category_id` + p.Where()
	if err := s.pool.QueryRow(ctx, countQuery, p.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := transactionSelect + p.Where() + transactionOrder +
		" LIMIT " + p.Next(1) + " OFFSET " + p.Next(2)
	args := append(p.Args(), page.Size, page.Offset())
	items, err := s.queryTransactions(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find transactions: %w", err)
	}
	return items, total, nil
}

func (s *Store) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	p := storage.TransactionPredicates(storage.Postgres, f)
	items, err := s.queryTransactions(ctx, transactionSelect+p.Where()+transactionOrder, p.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, transactionSelect+" WHERE t.id = $1", id))
	if err != nil {
		return t, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func insertTransaction(ctx context.Context, q querier, t core.Transaction) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO transactions (owner_id, type, category_id, amount, note, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.OwnerID, string(t.Type), t.CategoryID, numeric(t.Amount), t.Note, t.Date.Time, t.CreatedAt,
	).Scan(&id)
	return id, err
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := insertTransaction(ctx, s.pool, t)
	if err != nil {
		return t, fmt.Errorf("create transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to Postgres", "id", id, "owner_id", t.OwnerID, "amount", t.Amount.String())
	return s.GetTransaction(ctx, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET type = $1, category_id = $2, amount = $3, note = $4, transaction_date = $5
		WHERE id = $6`,
		string(t.Type), t.CategoryID, numeric(t.Amount), t.Note, t.Date.Time, t.ID)
	if err != nil {
		return t, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return t, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return s.GetTransaction(ctx, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// Categories

const categorySelect = `SELECT id, owner_id, name, type FROM categories`

func scanCategory(row pgx.Row) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ)
	c.Type = core.TransactionType(typ)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, categorySelect+` WHERE owner_id = $1 ORDER BY name, id`, ownerID)
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
	c, err := scanCategory(s.pool.QueryRow(ctx, categorySelect+` WHERE id = $1`, id))
	if err != nil {
		return c, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (s *Store) FindCategoryByName(ctx context.Context, ownerID int64, name string) (core.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx,
		categorySelect+` WHERE owner_id = $1 AND lower(name) = lower($2)`, ownerID, name))
	if err != nil {
		return c, fmt.Errorf("find category %q: %w", name, notFound(err))
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (owner_id, name, type) VALUES ($1, $2, $3) RETURNING id`,
		c.OwnerID, c.Name, string(c.Type)).Scan(&c.ID)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return c, fmt.Errorf("create category %q: %w", c.Name, storage.ErrDuplicate)
		}
		return c, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return fmt.Errorf("delete category %d: %w", id, storage.ErrInUse)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// Budgets

const budgetSelect = `SELECT id, owner_id, category, month, limit_amount, warning_threshold, created_at FROM budgets`

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b                core.Budget
		month            string
		limit, threshold pgtype.Numeric
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Category, &month, &limit, &threshold, &b.CreatedAt); err != nil {
		return b, err
	}
	var err error
	if b.Month, err = core.ParseMonth(strings.TrimSpace(month)); err != nil {
		return b, fmt.Errorf("decode budget %d month: %w", b.ID, err)
	}
	if b.Limit, err = fromNumeric(limit); err != nil {
		return b, fmt.Errorf("decode budget %d limit: %w", b.ID, err)
	}
	if b.WarningThreshold, err = fromNumeric(threshold); err != nil {
		return b, fmt.Errorf("decode budget %d threshold: %w", b.ID, err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx, budgetSelect+` WHERE owner_id = $1 ORDER BY month, category, id`, ownerID)
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
	b, err := scanBudget(s.pool.QueryRow(ctx, budgetSelect+` WHERE id = $1`, id))
	if err != nil {
		return b, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return b, nil
}

func (s *Store) BudgetExists(ctx context.Context, ownerID int64, category string, month core.Month) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM budgets WHERE owner_id = $1 AND lower(category) = lower($2) AND month = $3)`,
		ownerID, strings.TrimSpace(category), month.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check budget exists: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO budgets (owner_id, category, month, limit_amount, warning_threshold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		b.OwnerID, b.Category, b.Month.String(), numeric(b.Limit), numeric(b.WarningThreshold), b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return b, fmt.Errorf("create budget %s/%s: %w", b.Category, b.Month, storage.ErrDuplicate)
		}
		return b, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

// Recurring payments

const recurringSelect = `SELECT r.id, r.owner_id, r.type, r.category_id, c.name, r.amount, r.note,
	r.frequency, r.next_run, r.active
FROM recurring_payments r JOIN categories c ON c.id = r.category_id`

func scanRecurring(row pgx.Row) (core.RecurringPayment, error) {
	var (
		r         core.RecurringPayment
		typ, freq string
		amount    pgtype.Numeric
		nextRun   time.Time
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &typ, &r.CategoryID, &r.CategoryName, &amount, &r.Note, &freq, &nextRun, &r.Active); err != nil {
		return r, err
	}
	var err error
	r.Type = core.TransactionType(typ)
	r.Frequency = core.Frequency(freq)
	r.NextRun = core.DateOf(nextRun)
	if r.Amount, err = fromNumeric(amount); err != nil {
		return r, fmt.Errorf("decode recurring payment %d amount: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringPayment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	out, err := s.queryRecurring(ctx, recurringSelect+` WHERE r.owner_id = $1 ORDER BY r.next_run, r.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	return out, nil
}

func (s *Store) GetRecurring(ctx context.Context, id int64) (core.RecurringPayment, error) {
	r, err := scanRecurring(s.pool.QueryRow(ctx, recurringSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return r, fmt.Errorf("get recurring payment %d: %w", id, notFound(err))
	}
	return r, nil
}

func (s *Store) CreateRecurring(ctx context.Context, r core.RecurringPayment) (core.RecurringPayment, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO recurring_payments (owner_id, type, category_id, amount, note, frequency, next_run, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		r.OwnerID, string(r.Type), r.CategoryID, numeric(r.Amount), r.Note, string(r.Frequency), r.NextRun.Time, r.Active,
	).Scan(&id)
	if err != nil {
		return r, fmt.Errorf("create recurring payment: %w", err)
	}
	return s.GetRecurring(ctx, id)
}

func (s *Store) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE recurring_payments SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set recurring payment %d active: %w", id, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return fmt.Errorf("set recurring payment %d active: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recurring_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment %d: %w", id, err)
	}
	if err := affectedOne(tag, storage.ErrNotFound); err != nil {
		return fmt.Errorf("delete recurring payment %d: %w", id, err)
	}
	return nil
}

func (s *Store) FindDuePayments(ctx context.Context, asOf core.Date) ([]core.RecurringPayment, error) {
	out, err := s.queryRecurring(ctx,
		recurringSelect+` WHERE r.active AND r.next_run <= $1 ORDER BY r.next_run, r.id`, asOf.Time)
	if err != nil {
		return nil, fmt.Errorf("find due payments: %w", err)
	}
	return out, nil
}

func (s *Store) MaterializePayment(ctx context.Context, r core.RecurringPayment, next core.Date, createdAt time.Time) (core.Transaction, error) {
	var t core.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE recurring_payments SET next_run = $1 WHERE id = $2 AND next_run = $3 AND active`,
			next.Time, r.ID, r.NextRun.Time)
		if err != nil {
			return fmt.Errorf("advance recurring payment %d: %w", r.ID, err)
		}
		if err := affectedOne(tag, storage.ErrStale); err != nil {
			return fmt.Errorf("advance recurring payment %d: %w", r.ID, err)
		}

		t = r.Materialize(createdAt)
		if t.ID, err = insertTransaction(ctx, tx, t); err != nil {
			return fmt.Errorf("materialize recurring payment %d: %w", r.ID, err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
