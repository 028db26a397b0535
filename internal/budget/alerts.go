package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
)

// Level is the severity of a budget alert.
type Level string

const (
	LevelNear Level = "near"
	LevelOver Level = "over"
)

// Alert is one budget signal ready for a notifier. Category is empty for
// the monthly budget.
type Alert struct {
	Category  string
	Level     Level
	Budget    decimal.Decimal
	Remaining decimal.Decimal
}

// Alerts evaluates the monthly budget (when set) and every category budget
// above zero. Over wins over near. Category alerts are sorted by name.
// Nothing is reported while alerts are disabled.
func (e *Engine) Alerts(txns []model.Transaction) []Alert {
	cfg := e.Config()
	if !cfg.AlertsEnabled {
		return nil
	}
	var out []Alert

	if cfg.MonthlyBudget.IsPositive() {
		remaining := e.RemainingMonthly(txns)
		switch {
		case e.IsOverBudget(txns):
			out = append(out, Alert{Level: LevelOver, Budget: cfg.MonthlyBudget, Remaining: remaining})
		case e.IsNearBudget(txns):
			out = append(out, Alert{Level: LevelNear, Budget: cfg.MonthlyBudget, Remaining: remaining})
		}
	}

	cats := make([]string, 0, len(cfg.CategoryBudgets))
	for c, b := range cfg.CategoryBudgets {
		if b.IsPositive() {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	for _, c := range cats {
		remaining := e.RemainingCategory(c, txns)
		switch {
		case e.IsCategoryOverBudget(c, txns):
			out = append(out, Alert{Category: c, Level: LevelOver, Budget: cfg.CategoryBudgets[c], Remaining: remaining})
		case e.IsCategoryNearBudget(c, txns):
			out = append(out, Alert{Category: c, Level: LevelNear, Budget: cfg.CategoryBudgets[c], Remaining: remaining})
		}
	}
	return out
}
