package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the closed set of transaction kinds.
type TxType string

const (
	TxExpense  TxType = "expense"
	TxIncome   TxType = "income"
	TxTransfer TxType = "transfer"
)

// Valid reports whether t is one of the known transaction kinds.
func (t TxType) Valid() bool {
	switch t {
	case TxExpense, TxIncome, TxTransfer:
		return true
	}
	return false
}

// ParseTxType parses a stored type. Legacy records without a type are expenses.
func ParseTxType(s string) (TxType, error) {
	if s == "" {
		return TxExpense, nil
	}
	t := TxType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// UnmarshalText rejects unknown types so no record can carry one in memory.
func (t *TxType) UnmarshalText(b []byte) error {
	parsed, err := ParseTxType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction is one ledger record.
type Transaction struct {
	ID            string
	Type          TxType
	Amount        decimal.Decimal
	Date          time.Time
	Title         string
	Category      string
	Subcategory   string
	Account       string // expense/income only
	FromAccount   string // transfer only
	ToAccount     string // transfer only
	PaymentMethod string
	Merchant      string
	Notes         string
	Tags          []string
	IsRecurring   bool
	RecurringID   string
	IsDeleted     bool
	DeletedAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the transaction participates in aggregates.
func (t Transaction) Active() bool {
	return !t.IsDeleted
}

// HasTag reports whether tag is attached to the transaction.
func (t Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a copy that shares no slices with t.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Tags != nil {
		c.Tags = slices.Clone(t.Tags)
	}
	return c
}

type transactionJSON struct {
	ID            string      `json:"id"`
	Type          TxType      `json:"type"`
	Amount        json.Number `json:"amount"`
	Date          *int64      `json:"date"`
	Title         string      `json:"title,omitempty"`
	Category      string      `json:"category,omitempty"`
	Subcategory   string      `json:"subcategory,omitempty"`
	Account       string      `json:"account,omitempty"`
	FromAccount   string      `json:"fromAccount,omitempty"`
	ToAccount     string      `json:"toAccount,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Merchant      string      `json:"merchant,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Tags          []string    `json:"tags"`
	IsRecurring   bool        `json:"isRecurring"`
	RecurringID   *string     `json:"recurringId"`
	IsDeleted     bool        `json:"isDeleted"`
	DeletedAt     *int64      `json:"deletedAt"`
	CreatedAt     *int64      `json:"createdAt,omitempty"`
	UpdatedAt     *int64      `json:"updatedAt,omitempty"`
}

// MarshalJSON writes the stored record shape: epoch-millisecond instants and
// numeric amounts.
func (t Transaction) MarshalJSON() ([]byte, error) {
	w := transactionJSON{
		ID:            t.ID,
		Type:          t.Type,
		Amount:        numberOf(t.Amount),
		Date:          millis(t.Date),
		Title:         t.Title,
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		Account:       t.Account,
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		PaymentMethod: t.PaymentMethod,
		Merchant:      t.Merchant,
		Notes:         t.Notes,
		Tags:          t.Tags,
		IsRecurring:   t.IsRecurring,
		IsDeleted:     t.IsDeleted,
		DeletedAt:     millis(t.DeletedAt),
		CreatedAt:     millis(t.CreatedAt),
		UpdatedAt:     millis(t.UpdatedAt),
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if t.RecurringID != "" {
		id := t.RecurringID
		w.RecurringID = &id
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the stored record shape.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	amount, err := decimalOf(w.Amount)
	if err != nil {
		return fmt.Errorf("transaction %s: parsing amount %q: %w", w.ID, w.Amount, err)
	}
	if w.Type == "" {
		w.Type = TxExpense
	}
	*t = Transaction{
		ID:            w.ID,
		Type:          w.Type,
		Amount:        amount,
		Date:          fromMillis(w.Date),
		Title:         w.Title,
		Category:      w.Category,
		Subcategory:   w.Subcategory,
		Account:       w.Account,
		FromAccount:   w.FromAccount,
		ToAccount:     w.ToAccount,
		PaymentMethod: w.PaymentMethod,
		Merchant:      w.Merchant,
		Notes:         w.Notes,
		Tags:          w.Tags,
		IsRecurring:   w.IsRecurring,
		IsDeleted:     w.IsDeleted,
		DeletedAt:     fromMillis(w.DeletedAt),
		CreatedAt:     fromMillis(w.CreatedAt),
		UpdatedAt:     fromMillis(w.UpdatedAt),
	}
	if w.RecurringID != nil {
		t.RecurringID = *w.RecurringID
	}
	return nil
}
