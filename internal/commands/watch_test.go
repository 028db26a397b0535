package commands

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/app"
	"github.com/cleared-dev/pocket/internal/config"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store/memstore"
)

var watchNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

// watchEnv shares one store across apps so each open sees what the previous
// one saved, the way separate pocket invocations share a data directory.
type watchEnv struct {
	dir   string
	cfg   *config.Config
	store *memstore.Store

	mu  sync.Mutex
	now time.Time
}

func newWatchEnv(t *testing.T) *watchEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	return &watchEnv{dir: t.TempDir(), cfg: cfg, store: memstore.New(), now: watchNow}
}

func (e *watchEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *watchEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *watchEnv) open(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	return runApp(ctx, e.dir, e.cfg, fn, app.WithStore(e.store), app.WithClock(e.clock))
}

// do runs fn as its own invocation.
func (e *watchEnv) do(t *testing.T, fn func(a *app.App) error) {
	t.Helper()
	require.NoError(t, e.open(context.Background(), func(_ context.Context, a *app.App) error {
		return fn(a)
	}))
}

func (e *watchEnv) addDailyRule(t *testing.T, lastProcessed time.Time) {
	t.Helper()
	e.do(t, func(a *app.App) error {
		_, err := a.Recurring.Add(model.RecurringRule{
			Type:          model.TxExpense,
			Amount:        decimal.NewFromInt(40),
			Category:      "Food",
			Account:       "cash",
			Frequency:     model.Daily,
			LastProcessed: lastProcessed,
		})
		return err
	})
}

func TestWatch_RunsPassBeforeBlocking(t *testing.T) {
	e := newWatchEnv(t)
	e.addDailyRule(t, watchNow.AddDate(0, 0, -2))
	e.do(t, func(a *app.App) error { return a.Budget.SetMonthlyBudget(decimal.NewFromInt(50)) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	require.NoError(t, watch(ctx, &out, "@every 1h", time.UTC, e.open))

	assert.Contains(t, out.String(), "2026-03-15 10:00 created 2 recurring transaction(s)")
	assert.Contains(t, out.String(), "Monthly budget exceeded by 30.00")
	e.do(t, func(a *app.App) error {
		assert.Len(t, a.Ledger.Active(), 2)
		return nil
	})
}

func TestWatch_RejectsBadSchedule(t *testing.T) {
	e := newWatchEnv(t)
	err := watch(context.Background(), &bytes.Buffer{}, "every tuesday", time.UTC, e.open)
	assert.ErrorContains(t, err, "watch schedule")
}

func TestWatchPass_KeepsTransactionsAddedBetweenPasses(t *testing.T) {
	e := newWatchEnv(t)
	e.addDailyRule(t, watchNow.AddDate(0, 0, -1))

	var out bytes.Buffer
	pass := watchPass(&out, e.open)
	require.NoError(t, pass(context.Background()))

	// A separate `pocket tx add` while watch is idle.
	var manual string
	e.do(t, func(a *app.App) error {
		var err error
		manual, err = a.Ledger.Add(model.Transaction{
			Type:     model.TxExpense,
			Amount:   decimal.NewFromInt(77),
			Category: "Shopping",
			Account:  "cash",
		})
		return err
	})

	e.advance(24 * time.Hour)
	require.NoError(t, pass(context.Background()))

	e.do(t, func(a *app.App) error {
		active := a.Ledger.Active()
		assert.Len(t, active, 3)
		got, ok := a.Ledger.Get(manual)
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(77).Equal(got.Amount))
		return nil
	})
	assert.Contains(t, out.String(), "2026-03-15 10:00 created 1 recurring transaction(s)")
	assert.Contains(t, out.String(), "2026-03-16 10:00 created 1 recurring transaction(s)")
}
