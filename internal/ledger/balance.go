package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
)

// Delta is t's contribution to the balance of accountID. Transfers move
// money only between fromAccount and toAccount; expense and income only
// touch account.
func Delta(t model.Transaction, accountID string) decimal.Decimal {
	switch t.Type {
	case model.TxTransfer:
		switch accountID {
		case t.FromAccount:
			return t.Amount.Neg()
		case t.ToAccount:
			return t.Amount
		}
	case model.TxIncome:
		if t.Account == accountID {
			return t.Amount
		}
	case model.TxExpense:
		if t.Account == accountID {
			return t.Amount.Neg()
		}
	}
	return decimal.Zero
}

// Balance is the account's opening balance plus the delta of every active
// transaction, recomputed from scratch. Unknown accounts open at zero.
func (l *Ledger) Balance(accountID string) decimal.Decimal {
	l.mu.RLock()
	opening := l.opening
	l.mu.RUnlock()

	sum := decimal.Zero
	if opening != nil {
		if ob, ok := opening.OpeningBalance(accountID); ok {
			sum = ob
		}
	}
	return sum.Add(l.Movement(accountID))
}

// Movement is the sum of active deltas for accountID without the opening
// balance.
func (l *Ledger) Movement(accountID string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range l.txns {
		if t.Active() {
			sum = sum.Add(Delta(t, accountID))
		}
	}
	return sum
}
