package period

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/model"
)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDayBoundaries(t *testing.T) {
	ts := time.Date(2026, 2, 20, 15, 4, 5, 6, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	assert.Equal(t, time.Date(2026, 2, 20, 23, 59, 59, 999999999, time.UTC), EndOfDay(ts))
}

func TestWeekStartsMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday", at(2026, 10, 14, 9), at(2026, 10, 12, 0)},
		{"monday", at(2026, 10, 12, 9), at(2026, 10, 12, 0)},
		{"sunday belongs to previous week", at(2026, 10, 18, 22), at(2026, 10, 12, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfWeek(tt.in))
			assert.Equal(t, time.Sunday, EndOfWeek(tt.in).Weekday())
		})
	}
}

func TestMonthBoundaries(t *testing.T) {
	ts := at(2024, 2, 10, 12)
	assert.Equal(t, at(2024, 2, 1, 0), StartOfMonth(ts))
	assert.Equal(t, 29, EndOfMonth(ts).Day())
	assert.Equal(t, at(2024, 1, 1, 0), PreviousMonth(ts).Start)
	assert.Equal(t, 31, PreviousMonth(ts).End.Day())
}

func TestMonthBoundariesRespectLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2026, 3, 1, 1, 0, 0, 0, loc) // still February in UTC
	assert.Equal(t, time.March, StartOfMonth(ts).Month())
	assert.Equal(t, loc, StartOfMonth(ts).Location())
}

func TestRangeInclusive(t *testing.T) {
	r := Month(at(2026, 1, 15, 0))
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.End.Add(time.Nanosecond)))
	assert.False(t, r.Contains(r.Start.Add(-time.Nanosecond)))
}

func TestDaysRemainingInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysRemainingInMonth(at(2026, 1, 1, 0)))
	assert.Equal(t, 1, DaysRemainingInMonth(at(2026, 1, 31, 23)))
	assert.Equal(t, 2, DaysRemainingInMonth(at(2024, 2, 28, 8)))
	assert.Equal(t, 28, DaysInMonth(2026, time.February))
}

func TestMonthIndexAndSameDay(t *testing.T) {
	assert.Equal(t, 1, MonthIndex(at(2026, 2, 1, 0))-MonthIndex(at(2026, 1, 31, 0)))
	assert.Equal(t, 1, MonthIndex(at(2026, 1, 1, 0))-MonthIndex(at(2025, 12, 1, 0)))
	assert.True(t, SameDay(at(2026, 1, 1, 0), at(2026, 1, 1, 23)))
	assert.False(t, SameDay(at(2026, 1, 1, 23), at(2026, 1, 2, 0)))
}

func TestGrouping(t *testing.T) {
	txns := []model.Transaction{
		{Type: model.TxExpense, Category: "Food", Amount: dec("10.50"), Date: at(2026, 3, 1, 9)},
		{Type: model.TxExpense, Category: "Food", Amount: dec("4.50"), Date: at(2026, 3, 1, 20)},
		{Type: model.TxExpense, Category: "Bills", Amount: dec("40"), Date: at(2026, 3, 3, 9)},
		{Type: model.TxIncome, Category: "Salary", Amount: dec("100"), Date: at(2026, 3, 5, 9)},
		{Type: model.TxExpense, Category: "Food", Amount: dec("99"), Date: at(2026, 4, 1, 0)},
	}

	march := InRange(txns, MonthOf(2026, time.March, time.UTC))
	require.Len(t, march, 4)
	assert.True(t, dec("155").Equal(Total(march)))

	expenses := OfType(march, model.TxExpense)
	byCat := GroupByCategory(expenses)
	assert.True(t, dec("15").Equal(byCat["Food"]))
	assert.True(t, dec("40").Equal(byCat["Bills"]))
	assert.NotContains(t, byCat, "Salary")

	sorted := SortedCategories(byCat)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Bills", sorted[0].Category)

	daily := DailyTotals(expenses, 2026, time.March, time.UTC)
	require.Len(t, daily, 31)
	assert.Equal(t, 1, daily[0].Day)
	assert.True(t, dec("15").Equal(daily[0].Amount))
	assert.True(t, decimal.Zero.Equal(daily[1].Amount))
	assert.True(t, dec("40").Equal(daily[2].Amount))
}
