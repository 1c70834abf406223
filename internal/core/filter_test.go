package core

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionFilterMatches(t *testing.T) {
	tx := Transaction{
		OwnerID:      1,
		Type:         Expense,
		CategoryID:   5,
		CategoryName: "Groceries",
		Amount:       decimal.NewFromInt(10),
		Date:         NewDate(2024, 6, 15),
	}
	june := Month{Year: 2024, Month: 6}.Range()
	may := Month{Year: 2024, Month: 5}.Range()

	cases := []struct {
		name   string
		filter TransactionFilter
		want   bool
	}{
		{"owner only", TransactionFilter{OwnerID: 1}, true},
		{"other owner", TransactionFilter{OwnerID: 2}, false},
		{"type", TransactionFilter{OwnerID: 1, Type: Expense}, true},
		{"wrong type", TransactionFilter{OwnerID: 1, Type: Income}, false},
		{"category id", TransactionFilter{OwnerID: 1, CategoryID: 5}, true},
		{"wrong category id", TransactionFilter{OwnerID: 1, CategoryID: 6}, false},
		{"category name any case", TransactionFilter{OwnerID: 1, CategoryName: "groceries"}, true},
		{"wrong category name", TransactionFilter{OwnerID: 1, CategoryName: "Rent"}, false},
		{"in range", TransactionFilter{OwnerID: 1, Range: &june}, true},
		{"out of range", TransactionFilter{OwnerID: 1, Range: &may}, false},
		{"all predicates", TransactionFilter{OwnerID: 1, Type: Expense, CategoryID: 5, CategoryName: "GROCERIES", Range: &june}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(tx))
		})
	}
}

func TestPageRequestNormalize(t *testing.T) {
	p, err := PageRequest{}.Normalize(DefaultPageSize, MaxPageSize)
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 0, Size: 20}, p)

	p, err = PageRequest{Page: 2, Size: 500}.Normalize(DefaultPageSize, MaxPageSize)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Size)
	assert.Equal(t, 200, p.Offset())

	_, err = PageRequest{Page: -1}.Normalize(DefaultPageSize, MaxPageSize)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = PageRequest{Page: math.MaxInt64/100 + 1, Size: 100}.Normalize(DefaultPageSize, MaxPageSize)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "page: is out of range", err.Error())

	_, err = PageRequest{Page: math.MaxInt32}.Normalize(DefaultPageSize, MaxPageSize)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	p, err = PageRequest{Page: math.MaxInt32 / 100, Size: 100}.Normalize(DefaultPageSize, MaxPageSize)
	require.NoError(t, err)
	assert.Positive(t, p.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2}, PageRequest{Page: 1, Size: 2}, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(5), page.TotalElements)

	empty := NewPage[int](nil, PageRequest{Size: 20}, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
