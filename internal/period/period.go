// Package period holds calendar boundary math and the pure grouping helpers
// shared by the ledger, budget and reports. Every boundary is computed in the
// location of the time it is given.
package period

import "time"

// Range is an inclusive [Start, End] interval.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether start <= t <= end.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns Monday 00:00 of t's week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of Sunday of t's week.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func Day(t time.Time) Range   { return Range{StartOfDay(t), EndOfDay(t)} }
func Week(t time.Time) Range  { return Range{StartOfWeek(t), EndOfWeek(t)} }
func Month(t time.Time) Range { return Range{StartOfMonth(t), EndOfMonth(t)} }

// MonthOf returns the range of the given calendar month in loc.
func MonthOf(year int, month time.Month, loc *time.Location) Range {
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, loc))
}

// PreviousMonth returns the calendar month before t's month.
func PreviousMonth(t time.Time) Range {
	return Month(StartOfMonth(t).AddDate(0, -1, 0))
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysRemainingInMonth counts the days from t's day to the month's end,
// including t's day.
func DaysRemainingInMonth(t time.Time) int {
	return DaysInMonth(t.Year(), t.Month()) - t.Day() + 1
}

// MonthIndex is year*12+month, used for month-distance comparisons.
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
