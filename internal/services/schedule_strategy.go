package services

// This file holds one next-run strategy per recurrence frequency.

import (
	"fmt"

	"ledger/internal/core"
)

// NextRunAdvancer moves a recurring payment's next-run date by one period.
type NextRunAdvancer interface {
	Advance(current core.Date) core.Date
}

// DailyAdvancer adds one day.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(current core.Date) core.Date { return current.AddDays(1) }

// WeeklyAdvancer adds seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(current core.Date) core.Date { return current.AddDays(7) }

// MonthlyAdvancer adds one calendar month, clamping to the last day of a
// shorter month (Jan 31 -> Feb 29 in 2024, Feb 28 otherwise). The clamped
// day is kept afterwards: Feb 29 -> Mar 29.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(current core.Date) core.Date { return current.AddMonths(1) }

var advancers = map[core.Frequency]NextRunAdvancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
}

// GetAdvancer returns the strategy for a frequency.
func GetAdvancer(f core.Frequency) (NextRunAdvancer, error) {
	a, ok := advancers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return a, nil
}

// NextRun advances current by exactly one period of f.
func NextRun(current core.Date, f core.Frequency) (core.Date, error) {
	a, err := GetAdvancer(f)
	if err != nil {
		return core.Date{}, err
	}
	return a.Advance(current), nil
}
