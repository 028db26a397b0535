package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GoalType distinguishes saving toward a target from paying down a debt.
type GoalType string

const (
	GoalSave   GoalType = "save"
	GoalPayOff GoalType = "pay_off"
)

func (g GoalType) Valid() bool {
	return g == GoalSave || g == GoalPayOff
}

// Goal is a savings or pay-off target.
type Goal struct {
	ID           string
	Title        string
	TargetAmount decimal.Decimal
	Type         GoalType
	CreatedAt    time.Time
}

type goalJSON struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	TargetAmount json.Number `json:"targetAmount"`
	Type         GoalType    `json:"type"`
	CreatedAt    *int64      `json:"createdAt,omitempty"`
}

func (g Goal) MarshalJSON() ([]byte, error) {
	return json.Marshal(goalJSON{
		ID:           g.ID,
		Title:        g.Title,
		TargetAmount: numberOf(g.TargetAmount),
		Type:         g.Type,
		CreatedAt:    millis(g.CreatedAt),
	})
}

func (g *Goal) UnmarshalJSON(b []byte) error {
	var w goalJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	target, err := decimalOf(w.TargetAmount)
	if err != nil {
		return fmt.Errorf("goal %s: parsing targetAmount %q: %w", w.ID, w.TargetAmount, err)
	}
	if w.Type == "" {
		w.Type = GoalSave
	}
	*g = Goal{ID: w.ID, Title: w.Title, TargetAmount: target, Type: w.Type, CreatedAt: fromMillis(w.CreatedAt)}
	return nil
}
