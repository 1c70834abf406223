package core

import (
	"errors"
	"strings"
)

// Error kinds surfaced to callers. Every failure returned by the services
// wraps exactly one of these, or is an unexpected internal error.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

// FieldError reports a single invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrInvalidArgument }

// Invalid builds a FieldError.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

const precisionReason = "must have at most 15 integer and 4 decimal digits"

var (
	ErrInvalidAmount    = Invalid("amount", "must be greater than zero")
	ErrAmountPrecision  = Invalid("amount", precisionReason)
	ErrInvalidDate      = Invalid("date", "must be in YYYY-MM-DD format")
	ErrInvalidMonth     = Invalid("month", "must be in YYYY-MM format")
	ErrInvalidType      = Invalid("type", "must be INCOME or EXPENSE")
	ErrInvalidFrequency = Invalid("frequency", "must be DAILY, WEEKLY or MONTHLY")
	ErrEmptyName        = Invalid("name", "must not be blank")
	ErrEmptyCategory    = Invalid("category", "must not be blank")
)

// FieldErrors flattens err (including errors.Join trees) into its field errors.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// Without drops the field errors reported for field. Errors without field
// detail are dropped too, so it is meant for Validate results.
func Without(err error, field string) error {
	var kept []error
	for _, fe := range FieldErrors(err) {
		if fe.Field != field {
			kept = append(kept, fe)
		}
	}
	return errors.Join(kept...)
}

// Describe renders validation failures as "field: reason; field: reason".
// Errors without field detail are rendered with their own message.
func Describe(err error) string {
	fields := FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, len(fields))
	for i, fe := range fields {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}
