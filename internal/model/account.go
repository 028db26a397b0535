package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountType describes what kind of money an account holds. It carries no
// arithmetic meaning.
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCredit, AccountTypeSavings, AccountTypeInvestment:
		return true
	}
	return false
}

// Account is a place money lives. Balance is the opening balance, a fixed
// anchor that transactions never modify.
type Account struct {
	ID      string
	Name    string
	Type    AccountType
	Balance decimal.Decimal
}

type accountJSON struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    AccountType `json:"type"`
	Balance json.Number `json:"balance"`
}

func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountJSON{ID: a.ID, Name: a.Name, Type: a.Type, Balance: numberOf(a.Balance)})
}

func (a *Account) UnmarshalJSON(b []byte) error {
	var w accountJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	bal, err := decimalOf(w.Balance)
	if err != nil {
		return fmt.Errorf("account %s: parsing balance %q: %w", w.ID, w.Balance, err)
	}
	*a = Account{ID: w.ID, Name: w.Name, Type: w.Type, Balance: bal}
	return nil
}
