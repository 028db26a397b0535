package ledger

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// recorder is a Persister that keeps the last snapshot per key.
type recorder struct {
	mu    sync.Mutex
	last  map[string][]byte
	count int
	fail  bool
}

func newRecorder() *recorder { return &recorder{last: map[string][]byte{}} }

func (r *recorder) Enqueue(key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("encode failed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.last[key] = b
	r.count++
	return nil
}

func (r *recorder) transactions() []model.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transaction
	if err := json.Unmarshal(r.last["transactions"], &out); err != nil {
		panic(err)
	}
	return out
}

type names map[string]bool

func (n names) Contains(name string) bool { return n[name] }
func (n names) Exists(id string) bool     { return n[id] }

type openings map[string]decimal.Decimal

func (o openings) OpeningBalance(id string) (decimal.Decimal, bool) {
	b, ok := o[id]
	return b, ok
}

type registrarFake struct {
	seen []string
	err  error
}

func (r *registrarFake) Add(name string) error {
	r.seen = append(r.seen, name)
	return r.err
}

type fixture struct {
	ledger *Ledger
	rec    *recorder
	open   openings
	now    time.Time
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		rec:  newRecorder(),
		open: openings{"cash": dec("100"), "bank": decimal.Zero, "savings": dec("500")},
		now:  date(2026, time.March, 15),
	}
	base := []Option{
		WithIDGenerator(id.Sequence("tx")),
		WithClock(func() time.Time { return f.now }),
		WithCategories(names{"Food": true, "Transport": true, "Salary": true, "Others": true}),
		WithAccounts(names{"cash": true, "bank": true, "savings": true}),
		WithOpeningBalances(f.open),
	}
	f.ledger = New(nil, f.rec, append(base, opts...)...)
	return f
}

func (f *fixture) expense(amount string, category, account string, day int) string {
	txID, err := f.ledger.Add(model.Transaction{
		Type: model.TxExpense, Amount: dec(amount), Category: category, Account: account,
		Date: date(2026, time.March, day),
	})
	if err != nil {
		panic(err)
	}
	return txID
}
