// Package core holds the ledger domain: entities, calendar values, exact
// money handling and the error kinds shared by every layer.
//
// This file contains helpers for parsing monetary amounts and ratios.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Monetary values carry at most MaxIntegerDigits digits before the decimal
// separator and MaxScale after it.
const (
	MaxIntegerDigits = 15
	MaxScale         = 4
)

var plainDecimal = regexp.MustCompile(`^(\d+)(?:[.,](\d+))?$`)

// parsePlain accepts digits with an optional dot or comma fraction. Signs
// and exponents are rejected, as is anything wider than intDigits integer
// digits or scale fractional digits.
func parsePlain(field, s string, intDigits, scale int) (decimal.Decimal, error) {
	m := plainDecimal.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, Invalid(field, "must be a number")
	}
	integer := strings.TrimLeft(m[1], "0")
	if len(integer) > intDigits || len(m[2]) > scale {
		return decimal.Zero, Invalid(field,
			fmt.Sprintf("must have at most %d integer and %d decimal digits", intDigits, scale))
	}
	text := m[1]
	if m[2] != "" {
		text += "." + m[2]
	}
	return decimal.NewFromString(text)
}

// ParseAmount converts a decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs
// and exponent notation are rejected and the result must be strictly
// positive. No rounding is applied, so "0.10" + "0.20" + "0.30" sums to
// exactly 0.60.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
//	ParseAmount("1e3")   -> 0, amount: must be a number
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := parsePlain("amount", s, MaxIntegerDigits, MaxScale)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseLimit parses a non-negative amount such as a budget limit.
func ParseLimit(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, Invalid(field, "must not be negative")
	}
	return parsePlain(field, s, MaxIntegerDigits, MaxScale)
}

// ParseThreshold parses a warning threshold. Its range is checked by
// ValidThreshold.
func ParseThreshold(s string) (decimal.Decimal, error) {
	return parsePlain("warningThreshold", strings.TrimSpace(s), 1, MaxScale)
}

// WithinPrecision reports whether d fits the stored monetary precision.
// It never rescales d, so huge exponents are rejected cheaply.
func WithinPrecision(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	return exp >= -MaxScale && d.NumDigits()+exp <= MaxIntegerDigits
}

// DefaultWarningThreshold is applied to budgets created without one.
var DefaultWarningThreshold = decimal.RequireFromString("0.8")

// ValidThreshold reports whether t lies in (0, 1] with at most MaxScale
// decimals.
func ValidThreshold(t decimal.Decimal) bool {
	return WithinPrecision(t) && t.IsPositive() && t.LessThanOrEqual(decimal.NewFromInt(1))
}

// Sum folds amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
