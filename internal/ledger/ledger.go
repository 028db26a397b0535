// Package ledger owns the canonical transaction list. Every aggregate is
// recomputed from the active transactions on each call.
package ledger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
)

// Persister receives a snapshot of the full transaction list after every
// mutation.
type Persister interface {
	Enqueue(key string, v any) error
}

// CategoryChecker tests whether a category is registered.
type CategoryChecker interface {
	Contains(name string) bool
}

// AccountChecker tests whether an account id exists.
type AccountChecker interface {
	Exists(id string) bool
}

// OpeningBalances looks up an account's opening balance. Missing accounts
// report false and are treated as zero.
type OpeningBalances interface {
	OpeningBalance(id string) (decimal.Decimal, bool)
}

// Registrar records a merchant or tag name seen on a new transaction.
type Registrar interface {
	Add(name string) error
}

// Ledger is safe for concurrent use. It never calls a collaborator while
// holding its own lock.
type Ledger struct {
	mu   sync.RWMutex
	txns []model.Transaction

	persist        Persister
	newID          id.Generator
	now            func() time.Time
	categories     CategoryChecker
	accounts       AccountChecker
	opening        OpeningBalances
	merchants      Registrar
	tags           Registrar
	defaultAccount string
	paymentMethod  string
	log            zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithIDGenerator(g id.Generator) Option { return func(l *Ledger) { l.newID = g } }
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }
func WithCategories(c CategoryChecker) Option {
	return func(l *Ledger) { l.categories = c }
}
func WithAccounts(a AccountChecker) Option { return func(l *Ledger) { l.accounts = a } }
func WithOpeningBalances(o OpeningBalances) Option {
	return func(l *Ledger) { l.opening = o }
}

// WithRegistrars auto-registers merchants and tags of added transactions.
// Either may be nil.
func WithRegistrars(merchants, tags Registrar) Option {
	return func(l *Ledger) {
		l.merchants = merchants
		l.tags = tags
	}
}

// WithLogger reports registrar failures, which never fail the mutation.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithDefaults sets the account and payment method filled in when an expense
// or income omits them.
func WithDefaults(account, paymentMethod string) Option {
	return func(l *Ledger) {
		l.defaultAccount = account
		l.paymentMethod = paymentMethod
	}
}

// New creates a Ledger over previously loaded transactions.
func New(txns []model.Transaction, persist Persister, opts ...Option) *Ledger {
	l := &Ledger{
		txns:           cloneAll(txns),
		persist:        persist,
		newID:          id.New,
		now:            time.Now,
		defaultAccount: "cash",
		paymentMethod:  "cash",
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetOpeningBalances wires the opening-balance lookup after construction,
// for registries that themselves depend on the ledger.
func (l *Ledger) SetOpeningBalances(o OpeningBalances) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opening = o
}

func (l *Ledger) indexLocked(txID string) int {
	for i := range l.txns {
		if l.txns[i].ID == txID {
			return i
		}
	}
	return -1
}

// commitLocked persists next and, only once it is queued, makes it current.
func (l *Ledger) commitLocked(next []model.Transaction) error {
	if l.persist != nil {
		if err := l.persist.Enqueue(store.KeyTransactions, next); err != nil {
			return err
		}
	}
	l.txns = next
	return nil
}

func cloneAll(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		out[i] = t.Clone()
	}
	return out
}
