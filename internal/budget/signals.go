package budget

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
)

var hundred = decimal.NewFromInt(100)

func spending(txns []model.Transaction, r period.Range, keep func(model.Transaction) bool) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		if t.Active() && t.Type == model.TxExpense && r.Contains(t.Date) && keep(t) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

func (e *Engine) thisMonth() period.Range {
	return period.Month(e.now())
}

// MonthSpending sums active expenses dated in the current calendar month.
func (e *Engine) MonthSpending(txns []model.Transaction) decimal.Decimal {
	return spending(txns, e.thisMonth(), func(model.Transaction) bool { return true })
}

// CategorySpending is MonthSpending restricted to one category.
func (e *Engine) CategorySpending(category string, txns []model.Transaction) decimal.Decimal {
	return spending(txns, e.thisMonth(), func(t model.Transaction) bool { return t.Category == category })
}

// PreviousMonthSpending sums active expenses of the previous calendar month.
func (e *Engine) PreviousMonthSpending(txns []model.Transaction) decimal.Decimal {
	return spending(txns, period.PreviousMonth(e.now()), func(model.Transaction) bool { return true })
}

// RemainingMonthly may be negative.
func (e *Engine) RemainingMonthly(txns []model.Transaction) decimal.Decimal {
	return e.Config().MonthlyBudget.Sub(e.MonthSpending(txns))
}

// RemainingCategory treats an unset category budget as zero.
func (e *Engine) RemainingCategory(category string, txns []model.Transaction) decimal.Decimal {
	return e.categoryBudget(category).Sub(e.CategorySpending(category, txns))
}

func (e *Engine) categoryBudget(category string) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.CategoryBudgets[category]
}

// DailyBudgetRemaining spreads the remaining monthly budget over the days
// left in the month, today included.
func (e *Engine) DailyBudgetRemaining(txns []model.Transaction) decimal.Decimal {
	days := period.DaysRemainingInMonth(e.now())
	if days <= 0 {
		return decimal.Zero
	}
	return e.RemainingMonthly(txns).Div(decimal.NewFromInt(int64(days)))
}

// IsOverBudget reports remaining < 0. With a zero monthly budget any
// spending counts as over, so callers check MonthlyBudget > 0 first.
func (e *Engine) IsOverBudget(txns []model.Transaction) bool {
	return e.RemainingMonthly(txns).IsNegative()
}

// IsNearBudget reports alerts on and 0 < remaining <= budget*threshold.
func (e *Engine) IsNearBudget(txns []model.Transaction) bool {
	cfg := e.Config()
	return near(cfg, cfg.MonthlyBudget, e.RemainingMonthly(txns))
}

func (e *Engine) IsCategoryOverBudget(category string, txns []model.Transaction) bool {
	return e.RemainingCategory(category, txns).IsNegative()
}

// IsCategoryNearBudget is never true for a category without a budget.
func (e *Engine) IsCategoryNearBudget(category string, txns []model.Transaction) bool {
	cfg := e.Config()
	b := cfg.CategoryBudgets[category]
	if !b.IsPositive() {
		return false
	}
	return near(cfg, b, e.RemainingCategory(category, txns))
}

func near(cfg model.BudgetConfig, budget, remaining decimal.Decimal) bool {
	if !cfg.AlertsEnabled {
		return false
	}
	return remaining.IsPositive() && remaining.LessThanOrEqual(budget.Mul(cfg.AlertThreshold))
}

// EffectiveMonthlyBudget adds last month's unspent budget when rollover is
// enabled. It is a reporting figure; remaining and the signals use the
// configured monthly budget.
func (e *Engine) EffectiveMonthlyBudget(txns []model.Transaction) decimal.Decimal {
	cfg := e.Config()
	if !cfg.RolloverEnabled {
		return cfg.MonthlyBudget
	}
	carry := cfg.MonthlyBudget.Sub(e.PreviousMonthSpending(txns))
	if carry.IsNegative() {
		carry = decimal.Zero
	}
	return cfg.MonthlyBudget.Add(carry)
}

// Progress summarizes spending against a budget.
type Progress struct {
	Budget     decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage decimal.Decimal
	OverBudget bool
}

func progress(budget, spent decimal.Decimal) Progress {
	if budget.IsZero() {
		return Progress{Budget: budget, Spent: spent, Remaining: decimal.Zero, Percentage: decimal.Zero}
	}
	return Progress{
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Sub(spent),
		Percentage: spent.Div(budget).Mul(hundred),
		OverBudget: spent.GreaterThan(budget),
	}
}

// Progress reports the current month against the monthly budget. A zero
// budget reports zero remaining and zero percent.
func (e *Engine) Progress(txns []model.Transaction) Progress {
	return progress(e.Config().MonthlyBudget, e.MonthSpending(txns))
}

// CategoryProgress is Progress for one category budget.
func (e *Engine) CategoryProgress(category string, txns []model.Transaction) Progress {
	return progress(e.categoryBudget(category), e.CategorySpending(category, txns))
}
