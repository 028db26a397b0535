package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
)

// DefaultAccounts returns the accounts seeded on first use.
func DefaultAccounts() []model.Account {
	return []model.Account{
		{ID: "cash", Name: "Cash", Type: model.AccountTypeCash, Balance: decimal.Zero},
		{ID: "checking", Name: "Checking Account", Type: model.AccountTypeBank, Balance: decimal.Zero},
		{ID: "savings", Name: "Savings Account", Type: model.AccountTypeBank, Balance: decimal.Zero},
		{ID: "credit", Name: "Credit Card", Type: model.AccountTypeCredit, Balance: decimal.Zero},
	}
}
