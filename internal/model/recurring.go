package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring rule fires.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Frequencies lists every supported frequency in display order.
var Frequencies = []Frequency{Daily, Weekly, Monthly, Yearly}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// RecurringRule is a template that materializes into ledger transactions.
type RecurringRule struct {
	ID            string
	Type          TxType // expense or income
	Title         string
	Amount        decimal.Decimal
	Category      string
	Account       string
	PaymentMethod string
	Notes         string
	Frequency     Frequency
	StartDate     time.Time
	LastProcessed time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type recurringJSON struct {
	ID            string      `json:"id"`
	Type          TxType      `json:"type"`
	Title         string      `json:"title,omitempty"`
	Amount        json.Number `json:"amount"`
	Category      string      `json:"category,omitempty"`
	Account       string      `json:"account,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Frequency     Frequency   `json:"frequency"`
	StartDate     *int64      `json:"startDate,omitempty"`
	LastProcessed *int64      `json:"lastProcessed,omitempty"`
	IsActive      bool        `json:"isActive"`
	CreatedAt     *int64      `json:"createdAt,omitempty"`
	UpdatedAt     *int64      `json:"updatedAt,omitempty"`
}

func (r RecurringRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(recurringJSON{
		ID:            r.ID,
		Type:          r.Type,
		Title:         r.Title,
		Amount:        numberOf(r.Amount),
		Category:      r.Category,
		Account:       r.Account,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
		Frequency:     r.Frequency,
		StartDate:     millis(r.StartDate),
		LastProcessed: millis(r.LastProcessed),
		IsActive:      r.IsActive,
		CreatedAt:     millis(r.CreatedAt),
		UpdatedAt:     millis(r.UpdatedAt),
	})
}

func (r *RecurringRule) UnmarshalJSON(b []byte) error {
	var w recurringJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	amount, err := decimalOf(w.Amount)
	if err != nil {
		return fmt.Errorf("recurring %s: parsing amount %q: %w", w.ID, w.Amount, err)
	}
	if w.Type == "" {
		w.Type = TxExpense
	}
	if !w.Frequency.Valid() {
		return fmt.Errorf("recurring %s: unknown frequency %q", w.ID, w.Frequency)
	}
	*r = RecurringRule{
		ID:            w.ID,
		Type:          w.Type,
		Title:         w.Title,
		Amount:        amount,
		Category:      w.Category,
		Account:       w.Account,
		PaymentMethod: w.PaymentMethod,
		Notes:         w.Notes,
		Frequency:     w.Frequency,
		StartDate:     fromMillis(w.StartDate),
		LastProcessed: fromMillis(w.LastProcessed),
		IsActive:      w.IsActive,
		CreatedAt:     fromMillis(w.CreatedAt),
		UpdatedAt:     fromMillis(w.UpdatedAt),
	}
	return nil
}
