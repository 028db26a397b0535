package ledger

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

func (l *Ledger) collect(keep func(model.Transaction) bool) []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.Transaction
	for _, t := range l.txns {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Get returns the transaction with the given id, deleted or not.
func (l *Ledger) Get(txID string) (model.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(txID); i >= 0 {
		return l.txns[i].Clone(), true
	}
	return model.Transaction{}, false
}

// All returns every transaction including soft-deleted ones.
func (l *Ledger) All() []model.Transaction {
	return l.collect(func(model.Transaction) bool { return true })
}

// IDs lists every transaction id.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.txns))
	for i, t := range l.txns {
		out[i] = t.ID
	}
	return out
}

// Active returns the transactions that are not soft-deleted. Every aggregate
// is computed over this view.
func (l *Ledger) Active() []model.Transaction {
	return l.collect(model.Transaction.Active)
}

// Trash returns the soft-deleted transactions, most recently deleted first.
func (l *Ledger) Trash() []model.Transaction {
	out := l.collect(func(t model.Transaction) bool { return t.IsDeleted })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	return out
}

func (l *Ledger) activeOfType(typ model.TxType) []model.Transaction {
	return l.collect(func(t model.Transaction) bool { return t.Active() && t.Type == typ })
}

func (l *Ledger) Expenses() []model.Transaction { return l.activeOfType(model.TxExpense) }
func (l *Ledger) Incomes() []model.Transaction  { return l.activeOfType(model.TxIncome) }

// ByDateRange returns active transactions with start <= date <= end.
func (l *Ledger) ByDateRange(start, end time.Time) []model.Transaction {
	r := period.Range{Start: start, End: end}
	return l.collect(func(t model.Transaction) bool { return t.Active() && r.Contains(t.Date) })
}

// TotalByDateRange sums amounts in the range regardless of type.
func (l *Ledger) TotalByDateRange(start, end time.Time) decimal.Decimal {
	return period.Total(l.ByDateRange(start, end))
}

// ByCategory sums amounts in the range per category regardless of type.
// Reports filter to expenses with ExpensesByCategory.
func (l *Ledger) ByCategory(start, end time.Time) map[string]decimal.Decimal {
	return period.GroupByCategory(l.ByDateRange(start, end))
}

// ExpensesByCategory is ByCategory restricted to expenses.
func (l *Ledger) ExpensesByCategory(start, end time.Time) map[string]decimal.Decimal {
	return period.GroupByCategory(period.OfType(l.ByDateRange(start, end), model.TxExpense))
}

// Search matches query case-insensitively against title, category,
// merchant, notes and tags. A blank query returns every active transaction.
func (l *Ledger) Search(query string) []model.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return l.Active()
	}
	match := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }
	return l.collect(func(t model.Transaction) bool {
		if !t.Active() {
			return false
		}
		if match(t.Title) || match(t.Category) || match(t.Merchant) || match(t.Notes) {
			return true
		}
		return slices.ContainsFunc(t.Tags, match)
	})
}

// Filter narrows the active transactions. Zero fields match everything.
type Filter struct {
	Type          model.TxType
	Category      string
	Account       string // matches account, fromAccount or toAccount
	PaymentMethod string
	Tags          []string // any of
	Start         time.Time
	End           time.Time
}

func (f Filter) match(t model.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Account != "" && t.Account != f.Account && t.FromAccount != f.Account && t.ToAccount != f.Account {
		return false
	}
	if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, t.HasTag) {
		return false
	}
	if !f.Start.IsZero() && t.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.Date.After(f.End) {
		return false
	}
	return true
}

func (l *Ledger) Filter(f Filter) []model.Transaction {
	return l.collect(func(t model.Transaction) bool { return t.Active() && f.match(t) })
}

// DefaultRecentLimit is used by Recent when limit <= 0.
const DefaultRecentLimit = 10

// Recent returns the newest active transactions by date.
func (l *Ledger) Recent(limit int) []model.Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := l.Active()
	SortByDateDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortByDateDesc orders newest first, breaking ties by creation time.
func SortByDateDesc(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}
