package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
)

const (
	MaxNameLength = 100
	MaxNoteLength = 255
)

type (
	TransactionType string

	Frequency string

	Transaction struct {
		ID           int64           `json:"id"`
		OwnerID      int64           `json:"-"`
		Type         TransactionType `json:"type"`
		CategoryID   int64           `json:"categoryId"`
		CategoryName string          `json:"categoryName,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		Note         string          `json:"note,omitempty"`
		Date         Date            `json:"transactionDate"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	Category struct {
		ID      int64           `json:"id"`
		OwnerID int64           `json:"-"`
		Name    string          `json:"name"`
		Type    TransactionType `json:"type"`
	}

	// Budget caps EXPENSE spending for a category name in one month.
	// Category is matched by name, case-insensitively, not by category id.
	Budget struct {
		ID               int64           `json:"id"`
		OwnerID          int64           `json:"-"`
		Category         string          `json:"category"`
		Month            Month           `json:"month"`
		Limit            decimal.Decimal `json:"limitAmount"`
		WarningThreshold decimal.Decimal `json:"warningThreshold"`
		CreatedAt        time.Time       `json:"createdAt"`
	}

	RecurringPayment struct {
		ID           int64           `json:"id"`
		OwnerID      int64           `json:"-"`
		Type         TransactionType `json:"type"`
		CategoryID   int64           `json:"categoryId"`
		CategoryName string          `json:"categoryName,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		Note         string          `json:"note,omitempty"`
		Frequency    Frequency       `json:"frequency"`
		NextRun      Date            `json:"nextRun"`
		Active       bool            `json:"active"`
	}
)

// ParseTransactionType accepts INCOME or EXPENSE in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseFrequency accepts DAILY, WEEKLY or MONTHLY in any letter case.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	if !WithinPrecision(a) {
		return ErrAmountPrecision
	}
	return nil
}

func validateNote(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return Invalid("note", "must be at most 255 characters")
	}
	return nil
}

func (t Transaction) Validate() error {
	var errs []error
	if !t.Type.Valid() {
		errs = append(errs, ErrInvalidType)
	}
	if t.CategoryID <= 0 {
		errs = append(errs, Invalid("categoryId", "is required"))
	}
	if err := validateAmount(t.Amount); err != nil {
		errs = append(errs, err)
	}
	if t.Date.IsZero() {
		errs = append(errs, Invalid("transactionDate", "is required"))
	}
	if err := validateNote(t.Note); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Category) Validate() error {
	var errs []error
	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		errs = append(errs, ErrEmptyName)
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs = append(errs, Invalid("name", "must be at most 100 characters"))
	}
	if !c.Type.Valid() {
		errs = append(errs, ErrInvalidType)
	}
	return errors.Join(errs...)
}

func (b Budget) Validate() error {
	var errs []error
	if strings.TrimSpace(b.Category) == "" {
		errs = append(errs, ErrEmptyCategory)
	}
	if b.Month.IsZero() {
		errs = append(errs, ErrInvalidMonth)
	}
	switch {
	case b.Limit.IsNegative():
		errs = append(errs, Invalid("limitAmount", "must not be negative"))
	case !WithinPrecision(b.Limit):
		errs = append(errs, Invalid("limitAmount", precisionReason))
	}
	if !ValidThreshold(b.WarningThreshold) {
		errs = append(errs, Invalid("warningThreshold", "must be greater than 0 and at most 1"))
	}
	return errors.Join(errs...)
}

func (r RecurringPayment) Validate() error {
	var errs []error
	if !r.Type.Valid() {
		errs = append(errs, ErrInvalidType)
	}
	if r.CategoryID <= 0 {
		errs = append(errs, Invalid("categoryId", "is required"))
	}
	if err := validateAmount(r.Amount); err != nil {
		errs = append(errs, err)
	}
	if !r.Frequency.Valid() {
		errs = append(errs, ErrInvalidFrequency)
	}
	if r.NextRun.IsZero() {
		errs = append(errs, Invalid("nextRun", "is required"))
	}
	if err := validateNote(r.Note); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Materialize builds the transaction a recurring payment produces on its
// current next-run date.
func (r RecurringPayment) Materialize(createdAt time.Time) Transaction {
	return Transaction{
		OwnerID:      r.OwnerID,
		Type:         r.Type,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Amount:       r.Amount,
		Note:         r.Note,
		Date:         r.NextRun,
		CreatedAt:    createdAt,
	}
}
