package recurring

import (
	"time"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

// DuenessChecker decides whether a rule last processed at last is due at
// asOf, and where its next period boundary lies.
type DuenessChecker interface {
	IsDue(last, asOf time.Time) bool
	Next(last time.Time) time.Time
}

// DailyChecker is due once asOf is on a later calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(last, asOf time.Time) bool {
	return period.StartOfDay(asOf).After(period.StartOfDay(last.In(asOf.Location())))
}

func (DailyChecker) Next(last time.Time) time.Time { return last.AddDate(0, 0, 1) }

// WeeklyChecker is due once seven whole days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(last, asOf time.Time) bool {
	return int(asOf.Sub(last)/(24*time.Hour)) >= 7
}

func (WeeklyChecker) Next(last time.Time) time.Time { return last.AddDate(0, 0, 7) }

// MonthlyChecker is due in any later calendar month.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(last, asOf time.Time) bool {
	return period.MonthIndex(asOf)-period.MonthIndex(last.In(asOf.Location())) >= 1
}

func (MonthlyChecker) Next(last time.Time) time.Time { return addMonthsClamped(last, 1) }

// YearlyChecker is due in any later calendar year.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(last, asOf time.Time) bool {
	return asOf.Year()-last.In(asOf.Location()).Year() >= 1
}

func (YearlyChecker) Next(last time.Time) time.Time { return addMonthsClamped(last, 12) }

var duenessStrategies = map[model.Frequency]DuenessChecker{
	model.Daily:   DailyChecker{},
	model.Weekly:  WeeklyChecker{},
	model.Monthly: MonthlyChecker{},
	model.Yearly:  YearlyChecker{},
}

// Due reports whether rule should materialize a transaction at asOf.
// Inactive rules and rules whose start date lies after asOf are never due.
func Due(rule model.RecurringRule, asOf time.Time) bool {
	if !rule.IsActive {
		return false
	}
	if !rule.StartDate.IsZero() && asOf.Before(period.StartOfDay(rule.StartDate)) {
		return false
	}
	checker, ok := duenessStrategies[rule.Frequency]
	if !ok {
		return false
	}
	return checker.IsDue(rule.LastProcessed, asOf)
}

// addMonthsClamped adds n months, clamping to the last day of the target
// month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := period.DaysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
