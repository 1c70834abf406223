package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger/internal/core"
)

func TestTransactionPredicatesOwnerOnly(t *testing.T) {
	p := TransactionPredicates(SQLite, core.TransactionFilter{OwnerID: 7})
	assert.Equal(t, " WHERE t.owner_id = ?", p.Where())
	assert.Equal(t, []any{int64(7)}, p.Args())
}

func TestTransactionPredicatesPostgres(t *testing.T) {
	june := core.Month{Year: 2024, Month: 6}.Range()
	p := TransactionPredicates(Postgres, core.TransactionFilter{
		OwnerID:      1,
		Type:         core.Expense,
		CategoryID:   3,
		CategoryName: "Food",
		Range:        &june,
	})
	assert.Equal(t,
		" WHERE t.owner_id = $1 AND t.type = $2 AND t.category_id = $3 AND lower(c.name) = lower($4)"+
			" AND t.transaction_date >= $5 AND t.transaction_date <= $6",
		p.Where())
	assert.Len(t, p.Args(), 6)
	assert.Equal(t, "EXPENSE", p.Args()[1])
	assert.Equal(t, june.From.Time, p.Args()[4])
	assert.Equal(t, "$7", p.Next(1))
}

func TestTransactionPredicatesSQLiteDates(t *testing.T) {
	may := core.Month{Year: 2024, Month: 5}.Range()
	p := TransactionPredicates(SQLite, core.TransactionFilter{OwnerID: 1, Range: &may})
	assert.Equal(t, []any{int64(1), "2024-05-01", "2024-05-31"}, p.Args())
}

func TestPredicatesEmpty(t *testing.T) {
	assert.Equal(t, "", NewPredicates(SQLite).Where())
}
