// Package budget computes spending, remaining budget and alert signals over
// a caller-supplied transaction set. Signals are pure reads; only the
// setters change state, and each persists the whole configuration.
package budget

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
)

// Persister receives the full budget configuration after every change.
type Persister interface {
	Enqueue(key string, v any) error
}

// Engine holds the budget configuration.
type Engine struct {
	mu      sync.RWMutex
	cfg     model.BudgetConfig
	persist Persister
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that decides the current month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine from a loaded configuration.
func New(cfg model.BudgetConfig, persist Persister, opts ...Option) *Engine {
	cfg = cfg.Clone()
	if !cfg.AlertThreshold.IsPositive() || cfg.AlertThreshold.GreaterThan(decimal.NewFromInt(1)) {
		cfg.AlertThreshold = model.DefaultAlertThreshold
	}
	e := &Engine{cfg: cfg, persist: persist, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() model.BudgetConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Clone()
}

func (e *Engine) update(fn func(*model.BudgetConfig) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.cfg.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if e.persist != nil {
		if err := e.persist.Enqueue(store.KeyBudget, next); err != nil {
			return err
		}
	}
	e.cfg = next
	return nil
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return model.ValidationError{Field: field, Reason: fmt.Sprintf("must not be negative, got %s", d)}
	}
	return nil
}

func (e *Engine) SetMonthlyBudget(amount decimal.Decimal) error {
	if err := nonNegative("monthlyBudget", amount); err != nil {
		return err
	}
	return e.update(func(c *model.BudgetConfig) error {
		c.MonthlyBudget = amount
		return nil
	})
}

func (e *Engine) SetCategoryBudget(category string, amount decimal.Decimal) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.ValidationError{Field: "category", Reason: "required"}
	}
	if err := nonNegative("categoryBudget", amount); err != nil {
		return err
	}
	return e.update(func(c *model.BudgetConfig) error {
		c.CategoryBudgets[category] = amount
		return nil
	})
}

func (e *Engine) RemoveCategoryBudget(category string) error {
	return e.update(func(c *model.BudgetConfig) error {
		if _, ok := c.CategoryBudgets[category]; !ok {
			return model.NotFoundError{Kind: "category budget", ID: category}
		}
		delete(c.CategoryBudgets, category)
		return nil
	})
}

func (e *Engine) SetRolloverEnabled(on bool) error {
	return e.update(func(c *model.BudgetConfig) error {
		c.RolloverEnabled = on
		return nil
	})
}

func (e *Engine) SetAlertsEnabled(on bool) error {
	return e.update(func(c *model.BudgetConfig) error {
		c.AlertsEnabled = on
		return nil
	})
}

// SetAlertThreshold sets the near-budget fraction, which must be in (0, 1].
func (e *Engine) SetAlertThreshold(fraction decimal.Decimal) error {
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return model.ValidationError{Field: "alertThreshold", Reason: fmt.Sprintf("must be in (0, 1], got %s", fraction)}
	}
	return e.update(func(c *model.BudgetConfig) error {
		c.AlertThreshold = fraction
		return nil
	})
}
