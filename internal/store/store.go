// Package store defines the record-store contract and the per-key serialized
// writer that persists in-memory snapshots.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Logical keys.
const (
	KeyTransactions = "transactions"
	KeyAccounts     = "accounts"
	KeyCategories   = "categories"
	KeyBudget       = "budget"
	KeyRecurring    = "recurringTransactions"
	KeyMerchants    = "merchants"
	KeyTags         = "tags"
	KeyGoals        = "goals"
	KeyPayments     = "paymentMethods"
)

// Keys lists every logical key in a stable order.
var Keys = []string{
	KeyTransactions, KeyAccounts, KeyCategories, KeyBudget,
	KeyRecurring, KeyMerchants, KeyTags, KeyGoals, KeyPayments,
}

// Store durably holds one JSON document per key.
type Store interface {
	// Load returns the last saved document, or nil when the key was never saved.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save overwrites the document for key.
	Save(ctx context.Context, key string, data []byte) error
}

// LoadJSON decodes the document stored under key into v. It reports false,
// leaving v untouched, when nothing has been saved yet.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}
