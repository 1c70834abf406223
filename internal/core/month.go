package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Month identifies a calendar month. Its text form is the key "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts only the zero-padded "YYYY-MM" form.
func ParseMonth(s string) (Month, error) {
	if !monthPattern.MatchString(s) {
		return Month{}, ErrInvalidMonth
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	if year < 1 || month < 1 || month > 12 {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FirstDay is the first calendar day of the month.
func (m Month) FirstDay() Date { return NewDate(m.Year, int(m.Month), 1) }

// LastDay is the last calendar day of the month.
func (m Month) LastDay() Date { return NewDate(m.Year, int(m.Month), daysIn(m.Year, m.Month)) }

// Range covers every day of the month.
func (m Month) Range() DateRange {
	return DateRange{From: m.FirstDay(), To: m.LastDay()}
}

// AddMonths returns the month n months later (or earlier for negative n).
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.FirstDay().AddMonths(n))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidMonth
	}
	return m.UnmarshalText([]byte(s))
}
