package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/model"
)

// Add assigns a fresh id and creation time, fills defaults, validates and
// appends t. It returns the new id.
func (l *Ledger) Add(t model.Transaction) (string, error) {
	t = t.Clone()
	now := l.now()
	if t.Type == "" {
		t.Type = model.TxExpense
	}
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.Type != model.TxTransfer {
		if t.Account == "" {
			t.Account = l.defaultAccount
		}
		if t.PaymentMethod == "" {
			t.PaymentMethod = l.paymentMethod
		}
	}
	t.Title = strings.TrimSpace(t.Title)
	t.Merchant = strings.TrimSpace(t.Merchant)
	t.Tags = normalizeTags(t.Tags)
	t.IsDeleted = false
	t.DeletedAt = time.Time{}
	t.CreatedAt = now
	t.UpdatedAt = time.Time{}
	t.IsRecurring = t.RecurringID != ""

	if err := l.validate(t, allRefs); err != nil {
		return "", err
	}

	l.mu.Lock()
	t.ID = l.newID()
	for l.indexLocked(t.ID) >= 0 {
		t.ID = l.newID()
	}
	next := append(slices.Clone(l.txns), t)
	err := l.commitLocked(next)
	l.mu.Unlock()
	if err != nil {
		return "", err
	}

	l.register(t)
	return t.ID, nil
}

func (l *Ledger) register(t model.Transaction) {
	// Registries are best effort; the transaction is already committed.
	if l.merchants != nil && t.Merchant != "" {
		if err := l.merchants.Add(t.Merchant); err != nil {
			l.log.Warn().Err(err).Str("tx", t.ID).Str("merchant", t.Merchant).Msg("registering merchant")
		}
	}
	if l.tags != nil {
		for _, tag := range t.Tags {
			if err := l.tags.Add(tag); err != nil {
				l.log.Warn().Err(err).Str("tx", t.ID).Str("tag", tag).Msg("registering tag")
			}
		}
	}
}

// Patch lists the fields to change. Nil fields are left alone.
type Patch struct {
	Type          *model.TxType
	Amount        *decimal.Decimal
	Date          *time.Time
	Title         *string
	Category      *string
	Subcategory   *string
	Account       *string
	FromAccount   *string
	ToAccount     *string
	PaymentMethod *string
	Merchant      *string
	Notes         *string
	Tags          *[]string
}

func (p Patch) apply(t model.Transaction) (model.Transaction, refs) {
	var changed refs
	set := func(dst *string, src *string) bool {
		if src == nil {
			return false
		}
		*dst = *src
		return true
	}
	if p.Type != nil {
		t.Type = *p.Type
		changed = allRefs
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	set(&t.Title, p.Title)
	set(&t.Subcategory, p.Subcategory)
	set(&t.PaymentMethod, p.PaymentMethod)
	set(&t.Merchant, p.Merchant)
	set(&t.Notes, p.Notes)
	if set(&t.Category, p.Category) {
		changed.category = true
	}
	if set(&t.Account, p.Account) {
		changed.accounts = true
	}
	if set(&t.FromAccount, p.FromAccount) {
		changed.accounts = true
	}
	if set(&t.ToAccount, p.ToAccount) {
		changed.accounts = true
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(*p.Tags)
	}
	return t, changed
}

// Update merges p into the transaction and re-validates the result. The id
// never changes.
func (l *Ledger) Update(txID string, p Patch) error {
	l.mu.RLock()
	i := l.indexLocked(txID)
	var current model.Transaction
	if i >= 0 {
		current = l.txns[i].Clone()
	}
	l.mu.RUnlock()
	if i < 0 {
		return model.NotFoundError{Kind: "transaction", ID: txID}
	}

	merged, changed := p.apply(current)
	merged.ID = txID
	if err := l.validate(merged, changed); err != nil {
		return err
	}
	merged.UpdatedAt = l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	// Re-resolve: the list may have changed while validating unlocked.
	if i = l.indexLocked(txID); i < 0 {
		return model.NotFoundError{Kind: "transaction", ID: txID}
	}
	next := slices.Clone(l.txns)
	next[i] = merged
	return l.commitLocked(next)
}

// SoftDelete hides the transaction from every aggregate. Deleting an
// already deleted transaction is a no-op.
func (l *Ledger) SoftDelete(txID string) error {
	return l.modify(txID, func(t *model.Transaction) bool {
		if t.IsDeleted {
			return false
		}
		t.IsDeleted = true
		t.DeletedAt = l.now()
		return true
	})
}

// Restore brings a soft-deleted transaction back.
func (l *Ledger) Restore(txID string) error {
	return l.modify(txID, func(t *model.Transaction) bool {
		if !t.IsDeleted {
			return false
		}
		t.IsDeleted = false
		t.DeletedAt = time.Time{}
		return true
	})
}

func (l *Ledger) modify(txID string, fn func(*model.Transaction) bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(txID)
	if i < 0 {
		return model.NotFoundError{Kind: "transaction", ID: txID}
	}
	t := l.txns[i]
	if !fn(&t) {
		return nil
	}
	next := slices.Clone(l.txns)
	next[i] = t
	return l.commitLocked(next)
}

// PermanentDelete removes the record.
func (l *Ledger) PermanentDelete(txID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(txID)
	if i < 0 {
		return model.NotFoundError{Kind: "transaction", ID: txID}
	}
	next := slices.Delete(slices.Clone(l.txns), i, i+1)
	return l.commitLocked(next)
}

// EmptyTrash permanently deletes every soft-deleted transaction and returns
// how many were removed.
func (l *Ledger) EmptyTrash() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(l.txns), func(t model.Transaction) bool { return t.IsDeleted })
	n := len(l.txns) - len(next)
	if n == 0 {
		return 0, nil
	}
	if err := l.commitLocked(next); err != nil {
		return 0, err
	}
	return n, nil
}

// RewriteCategory changes every transaction in category from to category
// to, active or not. The new list is handed to persist before it becomes
// current, so a caller can queue it together with its own state; if persist
// fails nothing changes. It returns the number of rewritten transactions.
func (l *Ledger) RewriteCategory(from, to string, persist func([]model.Transaction) error) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := slices.Clone(l.txns)
	n := 0
	for i := range next {
		if next[i].Category == from {
			next[i].Category = to
			n++
		}
	}
	if persist != nil {
		if err := persist(next); err != nil {
			return 0, err
		}
	}
	l.txns = next
	return n, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
