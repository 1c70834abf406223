package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/storage/memory"
)

var june2024 = core.Month{Year: 2024, Month: time.June}

func TestEvaluateBudget(t *testing.T) {
	budget := core.Budget{Category: "Groceries", Month: june2024, Limit: dec("500"), WarningThreshold: dec("0.8")}
	expense := func(amount string) core.Transaction {
		return core.Transaction{Type: core.Expense, Amount: dec(amount)}
	}

	tests := []struct {
		name        string
		budget      core.Budget
		txs         []core.Transaction
		spent       string
		utilization string
		exceeded    bool
		nearLimit   bool
	}{
		{"exceeded", budget, []core.Transaction{expense("200"), expense("200"), expense("200")}, "600", "1.2", true, false},
		{"near limit", budget, []core.Transaction{expense("200"), expense("200"), expense("20")}, "420", "0.84", false, true},
		{"exactly at limit is near, not exceeded", budget, []core.Transaction{expense("500")}, "500", "1", false, true},
		{"just below threshold", budget, []core.Transaction{expense("399.99")}, "399.99", "0.79998", false, false},
		{"at threshold", budget, []core.Transaction{expense("400")}, "400", "0.8", false, true},
		{"no spend", budget, nil, "0", "0", false, false},
		{"income ignored", budget, []core.Transaction{{Type: core.Income, Amount: dec("10000")}, expense("1")}, "1", "0.002", false, false},
		{"zero limit with spend", core.Budget{Limit: dec("0"), WarningThreshold: dec("0.8")}, []core.Transaction{expense("5")}, "5", "0", true, false},
		{"zero limit without spend", core.Budget{Limit: dec("0"), WarningThreshold: dec("0.8")}, nil, "0", "0", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBudget(tt.budget, tt.txs)
			assert.True(t, got.Spent.Equal(dec(tt.spent)), "spent %s", got.Spent)
			assert.True(t, got.Utilization.Equal(dec(tt.utilization)), "utilization %s", got.Utilization)
			assert.Equal(t, tt.exceeded, got.Exceeded)
			assert.Equal(t, tt.nearLimit, got.NearLimit)
			assert.False(t, got.Exceeded && got.NearLimit)
		})
	}
}

func TestBudgetServiceListWithStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	groceries := mustCategory(t, store, 1, "Groceries", core.Expense)
	other := mustCategory(t, store, 2, "Groceries", core.Expense)
	svc := NewBudgetService(store)

	_, err := svc.Create(ctx, 1, core.Budget{Category: "groceries", Month: june2024, Limit: dec("500")})
	require.NoError(t, err)

	for _, d := range []int{1, 15, 30} {
		mustTransaction(t, store, 1, groceries, core.Expense, "200", core.NewDate(2024, 6, d))
	}
	// Outside the month, another owner, and income: none count.
	mustTransaction(t, store, 1, groceries, core.Expense, "999", core.NewDate(2024, 7, 1))
	mustTransaction(t, store, 1, groceries, core.Expense, "999", core.NewDate(2024, 5, 31))
	mustTransaction(t, store, 2, other, core.Expense, "999", core.NewDate(2024, 6, 10))
	mustTransaction(t, store, 1, groceries, core.Income, "999", core.NewDate(2024, 6, 10))

	summaries, err := svc.ListWithStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.True(t, s.Spent.Equal(dec("600")))
	assert.True(t, s.Utilization.Equal(dec("1.2")))
	assert.True(t, s.WarningThreshold.Equal(dec("0.8")), "default threshold applied")
	assert.True(t, s.Exceeded)
	assert.False(t, s.NearLimit)
}

func TestBudgetServiceNearLimitScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	groceries := mustCategory(t, store, 1, "Groceries", core.Expense)
	svc := NewBudgetService(store)

	_, err := svc.Create(ctx, 1, core.Budget{Category: "Groceries", Month: june2024, Limit: dec("500"), WarningThreshold: dec("0.8")})
	require.NoError(t, err)
	mustTransaction(t, store, 1, groceries, core.Expense, "200", core.NewDate(2024, 6, 3))
	mustTransaction(t, store, 1, groceries, core.Expense, "220", core.NewDate(2024, 6, 4))

	summaries, err := svc.ListWithStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Utilization.Equal(dec("0.84")))
	assert.False(t, summaries[0].Exceeded)
	assert.True(t, summaries[0].NearLimit)
}

func TestBudgetServiceCreateConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store)
	may := core.Month{Year: 2024, Month: time.May}

	_, err := svc.Create(ctx, 1, core.Budget{Category: "Food", Month: may, Limit: dec("100")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, core.Budget{Category: "food", Month: may, Limit: dec("100")})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Create(ctx, 1, core.Budget{Category: "Food", Month: june2024, Limit: dec("100")})
	assert.NoError(t, err, "different month")

	_, err = svc.Create(ctx, 2, core.Budget{Category: "Food", Month: may, Limit: dec("100")})
	assert.NoError(t, err, "different owner")

	_, err = svc.Create(ctx, 1, core.Budget{Category: "Rent", Month: may, Limit: dec("100"), WarningThreshold: dec("1.2")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestBudgetServiceConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewBudgetService(memory.New())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, 1, core.Budget{Category: "Food", Month: june2024, Limit: dec("10")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, core.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, conflicts)
}

func TestBudgetServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewBudgetService(memory.New())
	b, err := svc.Create(ctx, 1, core.Budget{Category: "Food", Month: june2024, Limit: dec("10")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 2, b.ID), core.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, 1, b.ID+100), core.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, b.ID))

	_, err = svc.Create(ctx, 1, core.Budget{Category: "FOOD", Month: june2024, Limit: dec("10")})
	assert.NoError(t, err, "slot is free again after delete")
}
