// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliobudget generates the dates of recurring budget entries and
// renders them as ledger transactions.
//
// Every schedule is a pure function of its rule and the requested range.
// There is no cursor state, so a schedule can be reused across ranges.
package pfoliobudget

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// Schedule produces the dates on which a budget entry occurs.
type Schedule interface {
	// Dates returns the occurrences in [start, end) in ascending order.
	Dates(start xtime.Date, end xtime.Date) iter.Seq[xtime.Date]
	// String returns a human-readable description of the schedule.
	String() string
}

// Interval occurs on the start date and then every fixed step after it.
type Interval struct {
	years  int
	months int
	weeks  int
	days   int
}

// NewInterval returns a new Interval.
//
// All components must be non-negative and at least one must be positive.
func NewInterval(years int, months int, weeks int, days int) (Interval, error) {
	if years < 0 || months < 0 || weeks < 0 || days < 0 {
		return Interval{}, errors.New("interval components must not be negative")
	}
	if years == 0 && months == 0 && weeks == 0 && days == 0 {
		return Interval{}, errors.New("interval must have a positive step")
	}
	return Interval{
		years:  years,
		months: months,
		weeks:  weeks,
		days:   days,
	}, nil
}

// Dates implements Schedule.
//
// The nth occurrence is computed from the start date directly, so month-end
// clamping in one step does not carry into the next.
func (i Interval) Dates(start xtime.Date, end xtime.Date) iter.Seq[xtime.Date] {
	return func(yield func(xtime.Date) bool) {
		for n := 0; ; n++ {
			date := start.AddMonths(n * (12*i.years + i.months)).AddDays(n * (7*i.weeks + i.days))
			if !date.Before(end) {
				return
			}
			if !yield(date) {
				return
			}
			// The zero Interval occurs once.
			if i == (Interval{}) {
				return
			}
		}
	}
}

// String implements Schedule.
func (i Interval) String() string {
	var parts []string
	for _, component := range []struct {
		value int
		unit  string
	}{
		{i.years, "y"},
		{i.months, "m"},
		{i.weeks, "w"},
		{i.days, "d"},
	} {
		if component.value != 0 {
			parts = append(parts, fmt.Sprintf("%d%s", component.value, component.unit))
		}
	}
	return "every " + strings.Join(parts, " ")
}

// Monthly occurs once a month on a fixed day.
//
// Days past the end of a month fall on the last day of that month.
type Monthly struct {
	day int
}

// NewMonthly returns a new Monthly for the day of the month, 1 to 31.
func NewMonthly(day int) (Monthly, error) {
	if err := validateDay(day); err != nil {
		return Monthly{}, err
	}
	return Monthly{day: day}, nil
}

// Dates implements Schedule.
func (m Monthly) Dates(start xtime.Date, end xtime.Date) iter.Seq[xtime.Date] {
	return monthDates(start, end, []int{m.day})
}

// String implements Schedule.
func (m Monthly) String() string {
	return fmt.Sprintf("monthly on day %d", m.day)
}

// SemiMonthly occurs on several fixed days each month, such as the 1st and the 15th.
type SemiMonthly struct {
	days []int
}

// DefaultSemiMonthlyDays are the days used when none are given.
var DefaultSemiMonthlyDays = []int{1, 15}

// NewSemiMonthly returns a new SemiMonthly for the days of the month.
//
// If no days are given, DefaultSemiMonthlyDays is used.
func NewSemiMonthly(days ...int) (SemiMonthly, error) {
	if len(days) == 0 {
		days = DefaultSemiMonthlyDays
	}
	days = slices.Clone(days)
	for _, day := range days {
		if err := validateDay(day); err != nil {
			return SemiMonthly{}, err
		}
	}
	slices.Sort(days)
	return SemiMonthly{days: slices.Compact(days)}, nil
}

// Dates implements Schedule.
func (s SemiMonthly) Dates(start xtime.Date, end xtime.Date) iter.Seq[xtime.Date] {
	return monthDates(start, end, s.days)
}

// String implements Schedule.
func (s SemiMonthly) String() string {
	days := make([]string, len(s.days))
	for i, day := range s.days {
		days[i] = fmt.Sprintf("%d", day)
	}
	return "monthly on days " + strings.Join(days, ", ")
}

// Entry is a recurring budget entry.
type Entry struct {
	Name         string
	Amount       decimal.Decimal
	Schedule     Schedule
	PayerAccount string
	PayeeAccount string
}

// Occurrence is an Entry on a specific date.
type Occurrence struct {
	Date  xtime.Date
	Entry Entry
}

// String returns the occurrence as a ledger transaction.
func (o Occurrence) String() string {
	return fmt.Sprintf(
		"%s %s\n  %s  %s\n  %s\n",
		o.Date,
		o.Entry.Name,
		o.Entry.PayerAccount,
		o.Entry.Amount.StringFixed(2),
		o.Entry.PayeeAccount,
	)
}

// Generate returns the occurrences of all entries in [start, end), sorted by
// date. Occurrences on the same date keep the order of the entries.
func Generate(entries []Entry, start xtime.Date, end xtime.Date) ([]Occurrence, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	var occurrences []Occurrence
	for _, entry := range entries {
		if entry.Schedule == nil {
			return nil, fmt.Errorf("budget entry %q has no schedule", entry.Name)
		}
		for date := range entry.Schedule.Dates(start, end) {
			occurrences = append(occurrences, Occurrence{Date: date, Entry: entry})
		}
	}
	slices.SortStableFunc(occurrences, func(a Occurrence, b Occurrence) int {
		return a.Date.Compare(b.Date)
	})
	return occurrences, nil
}

// WriteLedger writes the occurrences as ledger transactions separated by blank lines.
func WriteLedger(writer io.Writer, occurrences []Occurrence) error {
	for i, occurrence := range occurrences {
		if i > 0 {
			if _, err := io.WriteString(writer, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(writer, occurrence.String()); err != nil {
			return err
		}
	}
	return nil
}

// *** PRIVATE ***

func validateDay(day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("day of month must be between 1 and 31, got %d", day)
	}
	return nil
}

// monthDates yields each of the sorted days in every month overlapping [start, end).
func monthDates(start xtime.Date, end xtime.Date, days []int) iter.Seq[xtime.Date] {
	return func(yield func(xtime.Date) bool) {
		month := xtime.Date{Year: start.Year, Month: start.Month, Day: 1}
		for month.Before(end) {
			var previous xtime.Date
			for _, day := range days {
				date := xtime.Date{
					Year:  month.Year,
					Month: month.Month,
					Day:   min(day, xtime.DaysIn(month.Year, month.Month)),
				}
				// Days past the end of the month can clamp onto the same date.
				if date == previous {
					continue
				}
				previous = date
				if date.Before(start) {
					continue
				}
				if !date.Before(end) {
					return
				}
				if !yield(date) {
					return
				}
			}
			month = month.AddMonths(1)
		}
	}
}
