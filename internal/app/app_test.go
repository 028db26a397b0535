package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/activitylog"
	"github.com/cleared-dev/pocket/internal/config"
	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/ledger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
	"github.com/cleared-dev/pocket/internal/store/memstore"
)

var testNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timezone = "UTC"
	return cfg
}

func open(t *testing.T, s store.Store) *App {
	t.Helper()
	a, err := Open(context.Background(), t.TempDir(), testConfig(),
		WithStore(s),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(id.Sequence("id")),
	)
	require.NoError(t, err)
	return a
}

func TestOpenSeedsDefaults(t *testing.T) {
	ms := memstore.New()
	a := open(t, ms)
	require.NoError(t, a.Flush(context.Background()))

	assert.Len(t, a.Accounts.All(), 4)
	assert.Equal(t, []string{"Food", "Transport", "Bills", "Shopping", "Others"}, a.Categories.All())
	assert.True(t, a.Budget.Config().AlertsEnabled)
	assert.True(t, a.Budget.Config().AlertThreshold.Equal(decimal.RequireFromString("0.8")))
	assert.Equal(t, []string{"cash", "debit", "credit", "wallet"}, a.PaymentMethods.All())

	for _, key := range []string{store.KeyAccounts, store.KeyCategories, store.KeyBudget, store.KeyPayments} {
		assert.Equal(t, 1, ms.Saves(key), key)
	}
	assert.Zero(t, ms.Saves(store.KeyTransactions))
}

func TestOpenDoesNotReseed(t *testing.T) {
	ms := memstore.New()
	a := open(t, ms)
	_, err := a.Accounts.Add(model.Account{ID: "wallet", Name: "Wallet", Type: model.AccountTypeCash})
	require.NoError(t, err)
	require.NoError(t, a.Categories.Add("Travel"))
	require.NoError(t, a.Close(context.Background()))

	b := open(t, ms)
	assert.Len(t, b.Accounts.All(), 5)
	assert.True(t, b.Categories.Contains("Travel"))
	_, ok := b.Accounts.Get("wallet")
	assert.True(t, ok)
}

func TestServicesAreWired(t *testing.T) {
	ctx := context.Background()
	ms := memstore.New()
	a := open(t, ms)

	_, err := a.Ledger.Add(model.Transaction{Type: model.TxIncome, Amount: decimal.NewFromInt(500), Category: "Others", Account: "checking"})
	require.NoError(t, err)
	_, err = a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(20), Category: "Food", Merchant: "Bakery", Tags: []string{"weekend"}})
	require.NoError(t, err)

	// Unknown category and account are rejected through the registries.
	_, err = a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(1), Category: "Nope"})
	assert.True(t, model.IsValidation(err))
	_, err = a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(1), Category: "Food", Account: "nope"})
	assert.True(t, model.IsValidation(err))

	assert.True(t, a.Accounts.BalanceOf("checking").Equal(decimal.NewFromInt(500)))
	assert.True(t, a.Accounts.BalanceOf("cash").Equal(decimal.NewFromInt(-20)))
	assert.True(t, a.Merchants.Contains("Bakery"))
	assert.True(t, a.Tags.Contains("weekend"))

	n, err := a.Categories.Rename("Food", "Groceries")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	goalID, err := a.Goals.Add(model.Goal{Title: "Trip", TargetAmount: decimal.NewFromInt(960)})
	require.NoError(t, err)
	g, _ := a.Goals.Get(goalID)
	assert.True(t, a.Goals.ProgressOf(g).Percentage.Equal(decimal.NewFromInt(50)))

	require.NoError(t, a.Close(ctx))

	b := open(t, ms)
	require.Len(t, b.Ledger.All(), 2)
	assert.Len(t, b.Ledger.Filter(ledger.Filter{Category: "Groceries"}), 1)
	assert.Len(t, b.Goals.All(), 1)
}

func TestRecurringThroughApp(t *testing.T) {
	a := open(t, memstore.New())
	ruleID, err := a.Recurring.Add(model.RecurringRule{
		Title:         "Rent",
		Amount:        decimal.NewFromInt(900),
		Category:      "Bills",
		Account:       "checking",
		Frequency:     model.Monthly,
		LastProcessed: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	created, err := a.Recurring.ProcessAll(context.Background(), a.Now())
	require.NoError(t, err)
	require.Len(t, created, 1)
	tx, _ := a.Ledger.Get(created[0])
	assert.Equal(t, ruleID, tx.RecurringID)
	assert.True(t, a.Accounts.BalanceOf("checking").Equal(decimal.NewFromInt(-900)))
}

func TestOpenFileBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	a, err := Open(context.Background(), dir, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	_, err = os.Stat(filepath.Join(dir, "data", "accounts.json"))
	assert.NoError(t, err)
}

func TestOpenSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendSQLite

	a, err := Open(context.Background(), dir, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Categories.Add("Travel"))
	require.NoError(t, a.Close(context.Background()))

	var logged bytes.Buffer
	b, err := Open(context.Background(), dir, cfg, WithLogger(zerolog.New(&logged).Level(zerolog.DebugLevel)))
	require.NoError(t, err)
	defer b.Close(context.Background())
	assert.True(t, b.Categories.Contains("Travel"))
	assert.Contains(t, logged.String(), `"schema":1`)
}

func TestCloseReportsPersistenceFailure(t *testing.T) {
	ms := memstore.New()
	a := open(t, ms)
	ms.FailWith(func(key string) error {
		if key == store.KeyTransactions {
			return errors.New("disk full")
		}
		return nil
	})
	_, err := a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(5), Category: "Food"})
	require.NoError(t, err)

	err = a.Close(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsPersistence(err))
}

func TestRecordAppendsActivity(t *testing.T) {
	a := open(t, memstore.New())
	require.NoError(t, a.Record(context.Background(), "tx add", activitylog.Entry{Action: "add", Kind: "transaction", TargetID: "id-001"}))

	entries, err := activitylog.Read(a.DataDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testNow, entries[0].Timestamp)
}

func TestRecordSkipsLogOnFlushFailure(t *testing.T) {
	ms := memstore.New()
	a := open(t, ms)
	ms.FailWith(func(string) error { return errors.New("read-only") })
	require.NoError(t, a.Categories.Add("Travel"))

	err := a.Record(context.Background(), "category add", activitylog.Entry{Action: "add", Kind: "category"})
	require.Error(t, err)
	entries, _ := activitylog.Read(a.DataDir)
	assert.Empty(t, entries)
}

func TestServiceClocksUseConfiguredTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Pacific/Kiritimati"); err != nil {
		t.Skip("tzdata unavailable")
	}
	cfg := testConfig()
	cfg.Timezone = "Pacific/Kiritimati"
	// April 1, 02:00 in Kiritimati.
	instant := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	a, err := Open(context.Background(), t.TempDir(), cfg,
		WithStore(memstore.New()),
		WithClock(func() time.Time { return instant }),
		WithIDGenerator(id.Sequence("id")),
	)
	require.NoError(t, err)
	require.NoError(t, a.Budget.SetMonthlyBudget(decimal.NewFromInt(1000)))

	_, err = a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(500), Category: "Food",
		Date: time.Date(2026, time.March, 30, 20, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	txID, err := a.Ledger.Add(model.Transaction{Amount: decimal.NewFromInt(40), Category: "Food"})
	require.NoError(t, err)

	tx, _ := a.Ledger.Get(txID)
	assert.Equal(t, a.Location, tx.Date.Location())
	assert.Equal(t, time.April, tx.Date.Month())

	txns := a.Ledger.All()
	assert.True(t, a.Budget.MonthSpending(txns).Equal(decimal.NewFromInt(40)))
	assert.True(t, a.Budget.DailyBudgetRemaining(txns).Equal(decimal.NewFromInt(32)))
}
