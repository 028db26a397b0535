package period

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
)

// InRange returns the transactions dated within r. Deletion state is the
// caller's concern.
func InRange(txns []model.Transaction, r Range) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// OfType returns the transactions of the given type.
func OfType(txns []model.Transaction, typ model.TxType) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Total sums amounts without looking at type.
func Total(txns []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// GroupByCategory sums amounts keyed by category.
func GroupByCategory(txns []model.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txns {
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// SortedCategories orders a breakdown by amount descending, then name.
func SortedCategories(m map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(m))
	for k, v := range m {
		out = append(out, CategoryTotal{Category: k, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DayTotal is the summed amount for one day of a month.
type DayTotal struct {
	Day    int
	Amount decimal.Decimal
}

// DailyTotals returns one entry per day of the month, zero-filled, summing
// the transactions dated in that month.
func DailyTotals(txns []model.Transaction, year int, month time.Month, loc *time.Location) []DayTotal {
	r := MonthOf(year, month, loc)
	n := DaysInMonth(year, month)
	out := make([]DayTotal, n)
	for i := range out {
		out[i] = DayTotal{Day: i + 1, Amount: decimal.Zero}
	}
	for _, t := range InRange(txns, r) {
		d := t.Date.In(loc).Day()
		out[d-1].Amount = out[d-1].Amount.Add(t.Amount)
	}
	return out
}
