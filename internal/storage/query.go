package storage

import (
	"strconv"
	"strings"

	"ledger/internal/core"
)

// Dialect adapts the shared SQL to a driver's placeholder and date encoding.
type Dialect struct {
	Placeholder func(n int) string
	DateArg     func(d core.Date) any
}

var (
	// SQLite binds "?" and stores dates as YYYY-MM-DD text.
	SQLite = Dialect{
		Placeholder: func(int) string { return "?" },
		DateArg:     func(d core.Date) any { return d.String() },
	}
	// Postgres binds "$n" and stores dates as DATE.
	Postgres = Dialect{
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		DateArg:     func(d core.Date) any { return d.Time },
	}
)

// Predicates accumulates a WHERE conjunction with positional arguments.
type Predicates struct {
	dialect Dialect
	clauses []string
	args    []any
}

func NewPredicates(d Dialect) *Predicates {
	return &Predicates{dialect: d}
}

// Add appends clause, where each "?" is replaced by the next placeholder.
func (p *Predicates) Add(clause string, args ...any) *Predicates {
	var b strings.Builder
	for _, r := range clause {
		if r == '?' {
			p.args = append(p.args, nil)
			b.WriteString(p.dialect.Placeholder(len(p.args)))
			continue
		}
		b.WriteRune(r)
	}
	copy(p.args[len(p.args)-len(args):], args)
	p.clauses = append(p.clauses, b.String())
	return p
}

// Where renders " WHERE a AND b", or "" when empty.
func (p *Predicates) Where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (p *Predicates) Args() []any { return p.args }

// Next returns the placeholder for the argument after the current ones,
// used to append LIMIT/OFFSET.
func (p *Predicates) Next(offset int) string {
	return p.dialect.Placeholder(len(p.args) + offset)
}

// TransactionPredicates composes f against the aliases t (transactions)
// and c (categories). The owner predicate is always present.
func TransactionPredicates(d Dialect, f core.TransactionFilter) *Predicates {
	p := NewPredicates(d).Add("t.owner_id = ?", f.OwnerID)
	if f.Type != "" {
		p.Add("t.type = ?", string(f.Type))
	}
	if f.CategoryID != 0 {
		p.Add("t.category_id = ?", f.CategoryID)
	}
	if f.CategoryName != "" {
		p.Add("lower(c.name) = lower(?)", f.CategoryName)
	}
	if f.Range != nil {
		p.Add("t.transaction_date >= ?", d.DateArg(f.Range.From))
		p.Add("t.transaction_date <= ?", d.DateArg(f.Range.To))
	}
	return p
}
