package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		reason string
	}{
		{"12.34", "12.34", ""},
		{"12,34", "12.34", ""},
		{" 7 ", "7", ""},
		{"0.001", "0.001", ""},
		{"999999999999999.9999", "999999999999999.9999", ""},
		{"0000000000000000001", "1", ""},
		{"0", "", "must be greater than zero"},
		{"0.00", "", "must be greater than zero"},
		{"-1", "", "must be greater than zero"},
		{"+1", "", "must be greater than zero"},
		{"", "", "must be greater than zero"},
		{"abc", "", "must be a number"},
		{"1.2.3", "", "must be a number"},
		{"1e100000000", "", "must be a number"},
		{"1E3", "", "must be a number"},
		{".5", "", "must be a number"},
		{"5.", "", "must be a number"},
		{"1 000", "", "must be a number"},
		{"1234567890123456", "", "must have at most 15 integer and 4 decimal digits"},
		{"1.23456", "", "must have at most 15 integer and 4 decimal digits"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.reason != "" {
				require.ErrorIs(t, err, ErrInvalidArgument)
				fields := FieldErrors(err)
				require.Len(t, fields, 1)
				assert.Equal(t, "amount", fields[0].Field)
				assert.Equal(t, tc.reason, fields[0].Reason)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestParseLimit(t *testing.T) {
	d, err := ParseLimit("limitAmount", "0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseLimit("limitAmount", "150,5")
	require.NoError(t, err)
	assert.Equal(t, "150.5", d.String())

	_, err = ParseLimit("limitAmount", "-1")
	assert.EqualError(t, err, "limitAmount: must not be negative")

	_, err = ParseLimit("limitAmount", "1e9")
	assert.EqualError(t, err, "limitAmount: must be a number")
}

func TestParseThreshold(t *testing.T) {
	d, err := ParseThreshold("0,75")
	require.NoError(t, err)
	assert.Equal(t, "0.75", d.String())

	_, err = ParseThreshold("8e-1")
	assert.EqualError(t, err, "warningThreshold: must be a number")

	_, err = ParseThreshold("0.80001")
	assert.EqualError(t, err, "warningThreshold: must have at most 1 integer and 4 decimal digits")

	_, err = ParseThreshold("10")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWithinPrecision(t *testing.T) {
	assert.True(t, WithinPrecision(decimal.RequireFromString("999999999999999.9999")))
	assert.True(t, WithinPrecision(decimal.New(5, 3)))
	assert.False(t, WithinPrecision(decimal.New(1, MaxIntegerDigits)))
	assert.False(t, WithinPrecision(decimal.New(1, 100000000)))
	assert.False(t, WithinPrecision(decimal.RequireFromString("0.00001")))
}

func TestSumIsExact(t *testing.T) {
	total := Sum(
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.20"),
		decimal.RequireFromString("0.30"),
	)
	assert.Equal(t, "0.6", total.String())
	assert.True(t, total.Equal(decimal.RequireFromString("0.60")))
}

func TestValidThreshold(t *testing.T) {
	assert.True(t, ValidThreshold(decimal.RequireFromString("0.8")))
	assert.True(t, ValidThreshold(decimal.NewFromInt(1)))
	assert.False(t, ValidThreshold(decimal.Zero))
	assert.False(t, ValidThreshold(decimal.RequireFromString("1.01")))
	assert.False(t, ValidThreshold(decimal.RequireFromString("0.80001")))
	assert.False(t, ValidThreshold(decimal.New(1, 100000000)))
}
