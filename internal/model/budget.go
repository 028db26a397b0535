package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultAlertThreshold is the fraction of a budget at which the near-budget
// signal fires when no threshold has been configured.
var DefaultAlertThreshold = decimal.RequireFromString("0.8")

// BudgetConfig is the singleton budget configuration. It is always persisted
// as a whole.
type BudgetConfig struct {
	MonthlyBudget   decimal.Decimal
	CategoryBudgets map[string]decimal.Decimal
	RolloverEnabled bool
	AlertsEnabled   bool
	AlertThreshold  decimal.Decimal
}

// DefaultBudget returns an empty budget with alerts on at the default threshold.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		CategoryBudgets: map[string]decimal.Decimal{},
		AlertsEnabled:   true,
		AlertThreshold:  DefaultAlertThreshold,
	}
}

// Clone returns a deep copy.
func (b BudgetConfig) Clone() BudgetConfig {
	c := b
	c.CategoryBudgets = make(map[string]decimal.Decimal, len(b.CategoryBudgets))
	for k, v := range b.CategoryBudgets {
		c.CategoryBudgets[k] = v
	}
	return c
}

type budgetJSON struct {
	MonthlyBudget   json.Number            `json:"monthlyBudget"`
	CategoryBudgets map[string]json.Number `json:"categoryBudgets"`
	RolloverEnabled bool                   `json:"rolloverEnabled"`
	AlertsEnabled   bool                   `json:"alertsEnabled"`
	AlertThreshold  json.Number            `json:"alertThreshold"`
}

func (b BudgetConfig) MarshalJSON() ([]byte, error) {
	w := budgetJSON{
		MonthlyBudget:   numberOf(b.MonthlyBudget),
		CategoryBudgets: make(map[string]json.Number, len(b.CategoryBudgets)),
		RolloverEnabled: b.RolloverEnabled,
		AlertsEnabled:   b.AlertsEnabled,
		AlertThreshold:  numberOf(b.AlertThreshold),
	}
	for k, v := range b.CategoryBudgets {
		w.CategoryBudgets[k] = numberOf(v)
	}
	return json.Marshal(w)
}

func (b *BudgetConfig) UnmarshalJSON(data []byte) error {
	var w budgetJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	monthly, err := decimalOf(w.MonthlyBudget)
	if err != nil {
		return fmt.Errorf("parsing monthlyBudget: %w", err)
	}
	threshold := DefaultAlertThreshold
	if w.AlertThreshold != "" {
		if threshold, err = decimalOf(w.AlertThreshold); err != nil {
			return fmt.Errorf("parsing alertThreshold: %w", err)
		}
	}
	cats := make(map[string]decimal.Decimal, len(w.CategoryBudgets))
	for k, v := range w.CategoryBudgets {
		d, err := decimalOf(v)
		if err != nil {
			return fmt.Errorf("parsing category budget %s: %w", k, err)
		}
		cats[k] = d
	}
	*b = BudgetConfig{
		MonthlyBudget:   monthly,
		CategoryBudgets: cats,
		RolloverEnabled: w.RolloverEnabled,
		AlertsEnabled:   w.AlertsEnabled,
		AlertThreshold:  threshold,
	}
	return nil
}
