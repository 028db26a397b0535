package ledger

import (
	"fmt"

	"github.com/cleared-dev/pocket/internal/model"
)

// refs selects which references are checked against the registries.
// Updates only re-check references they change, since categories and
// accounts may be removed after a transaction points at them.
type refs struct {
	category bool
	accounts bool
}

var allRefs = refs{category: true, accounts: true}

func (l *Ledger) validate(t model.Transaction, check refs) error {
	if !t.Type.Valid() {
		return model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", t.Type)}
	}
	if !t.Amount.IsPositive() {
		return model.ValidationError{Field: "amount", Reason: fmt.Sprintf("must be greater than zero, got %s", t.Amount)}
	}
	if t.Date.IsZero() {
		return model.ValidationError{Field: "date", Reason: "required"}
	}

	switch t.Type {
	case model.TxTransfer:
		if t.FromAccount == "" || t.ToAccount == "" {
			return model.ValidationError{Field: "account", Reason: "transfer needs both fromAccount and toAccount"}
		}
		if t.FromAccount == t.ToAccount {
			return model.ValidationError{Field: "toAccount", Reason: "transfer must be between two different accounts"}
		}
		if check.accounts {
			if err := l.checkAccount("fromAccount", t.FromAccount); err != nil {
				return err
			}
			if err := l.checkAccount("toAccount", t.ToAccount); err != nil {
				return err
			}
		}
	case model.TxExpense, model.TxIncome:
		if t.Account == "" {
			return model.ValidationError{Field: "account", Reason: "required"}
		}
		if t.Category == "" {
			return model.ValidationError{Field: "category", Reason: "required"}
		}
		if check.accounts {
			if err := l.checkAccount("account", t.Account); err != nil {
				return err
			}
		}
		if check.category && l.categories != nil && !l.categories.Contains(t.Category) {
			return model.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", t.Category)}
		}
	}
	return nil
}

func (l *Ledger) checkAccount(field, accountID string) error {
	if l.accounts != nil && !l.accounts.Exists(accountID) {
		return model.ValidationError{Field: field, Reason: fmt.Sprintf("unknown account %q", accountID)}
	}
	return nil
}
