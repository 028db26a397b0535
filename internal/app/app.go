// Package app wires the services over one data directory.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/pocket/internal/accounts"
	"github.com/cleared-dev/pocket/internal/budget"
	"github.com/cleared-dev/pocket/internal/config"
	"github.com/cleared-dev/pocket/internal/goals"
	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/ledger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/recurring"
	"github.com/cleared-dev/pocket/internal/store"
	"github.com/cleared-dev/pocket/internal/store/filestore"
	"github.com/cleared-dev/pocket/internal/store/sqlitestore"
	"github.com/cleared-dev/pocket/internal/taxonomy"
)

// App owns every service of one data directory.
type App struct {
	Config   *config.Config
	DataDir  string
	Location *time.Location
	Log      zerolog.Logger

	Store  store.Store
	Writer *store.Writer

	Ledger         *ledger.Ledger
	Accounts       *accounts.Service
	Categories     *taxonomy.Categories
	Tags           *taxonomy.Set
	Merchants      *taxonomy.Set
	PaymentMethods *taxonomy.Set
	Budget         *budget.Engine
	Recurring      *recurring.Service
	Goals          *goals.Service

	now func() time.Time
}

type options struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
	newID id.Generator
}

// Option configures Open.
type Option func(*options)

// WithStore uses s instead of the configured backend.
func WithStore(s store.Store) Option { return func(o *options) { o.store = s } }

func WithLogger(l zerolog.Logger) Option    { return func(o *options) { o.log = l } }
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }
func WithIDGenerator(g id.Generator) Option { return func(o *options) { o.newID = g } }

// loaded holds the raw documents read at startup.
type loaded struct {
	txns      []model.Transaction
	accounts  []model.Account
	hasAccts  bool
	cats      []string
	hasCats   bool
	budget    model.BudgetConfig
	hasBudget bool
	rules     []model.RecurringRule
	merchants []string
	tags      []string
	goals     []model.Goal
	payments  []string
	hasPays   bool
}

// Open loads every key and wires the services. Keys that were never saved
// are seeded with defaults, and the seeds are queued for persistence.
func Open(ctx context.Context, dataDir string, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{log: zerolog.Nop(), now: time.Now, newID: id.New}
	for _, opt := range opts {
		opt(&o)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	s := o.store
	if s == nil {
		if s, err = openStore(cfg, dataDir); err != nil {
			return nil, err
		}
	}

	data, err := load(ctx, s)
	if err != nil {
		_ = closeStore(s)
		return nil, err
	}

	w := store.NewWriter(s, store.WithLogger(o.log))
	a := &App{
		Config:   cfg,
		DataDir:  dataDir,
		Location: loc,
		Log:      o.log,
		Store:    s,
		Writer:   w,
		now:      o.now,
	}
	if err := a.wire(data, o); err != nil {
		_ = closeStore(s)
		return nil, err
	}
	ev := o.log.Debug().Str("dir", dataDir).Str("backend", cfg.Storage.Backend).Int("transactions", len(data.txns))
	if v, ok := s.(interface{ SchemaVersion() uint }); ok {
		ev = ev.Uint("schema", v.SchemaVersion())
	}
	ev.Msg("opened")
	return a, nil
}

func openStore(cfg *config.Config, dataDir string) (store.Store, error) {
	path := cfg.StoragePath(dataDir)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return sqlitestore.Open(path)
	case config.BackendFile:
		return filestore.New(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func load(ctx context.Context, s store.Store) (*loaded, error) {
	var d loaded
	g, ctx := errgroup.WithContext(ctx)
	get := func(key string, v any, found *bool) {
		g.Go(func() error {
			ok, err := store.LoadJSON(ctx, s, key, v)
			if found != nil {
				*found = ok
			}
			return err
		})
	}
	get(store.KeyTransactions, &d.txns, nil)
	get(store.KeyAccounts, &d.accounts, &d.hasAccts)
	get(store.KeyCategories, &d.cats, &d.hasCats)
	get(store.KeyBudget, &d.budget, &d.hasBudget)
	get(store.KeyRecurring, &d.rules, nil)
	get(store.KeyMerchants, &d.merchants, nil)
	get(store.KeyTags, &d.tags, nil)
	get(store.KeyGoals, &d.goals, nil)
	get(store.KeyPayments, &d.payments, &d.hasPays)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *App) wire(d *loaded, o options) error {
	var seeds []store.Entry

	if !d.hasAccts {
		d.accounts = accounts.DefaultAccounts()
		seeds = append(seeds, store.Entry{Key: store.KeyAccounts, Value: d.accounts})
	}
	if !d.hasBudget {
		d.budget = model.DefaultBudget()
		d.budget.AlertThreshold = decimal.NewFromFloat(a.Config.Budget.AlertThreshold)
		seeds = append(seeds, store.Entry{Key: store.KeyBudget, Value: d.budget})
	}
	if !d.hasPays {
		d.payments = taxonomy.DefaultPaymentMethods
		seeds = append(seeds, store.Entry{Key: store.KeyPayments, Value: d.payments})
	}

	a.Categories = taxonomy.NewCategories(d.cats, a.Writer, a.Config.Defaults.FallbackCategory)
	if !d.hasCats {
		seeds = append(seeds, store.Entry{Key: store.KeyCategories, Value: a.Categories.All()})
	}
	a.Tags = taxonomy.NewSet(store.KeyTags, "tag", d.tags, a.Writer)
	a.Merchants = taxonomy.NewSet(store.KeyMerchants, "merchant", d.merchants, a.Writer)
	a.PaymentMethods = taxonomy.NewSet(store.KeyPayments, "payment method", d.payments, a.Writer)

	a.Accounts = accounts.NewService(d.accounts, a.Writer)
	a.Accounts.SetIDGenerator(o.newID)
	a.Ledger = ledger.New(d.txns, a.Writer,
		ledger.WithIDGenerator(o.newID),
		ledger.WithClock(a.Now),
		ledger.WithCategories(a.Categories),
		ledger.WithAccounts(a.Accounts),
		ledger.WithOpeningBalances(a.Accounts),
		ledger.WithRegistrars(a.Merchants, a.Tags),
		ledger.WithDefaults(a.Config.Defaults.Account, "cash"),
		ledger.WithLogger(o.log),
	)
	a.Accounts.SetBalancer(a.Ledger)
	a.Categories.SetRewriter(a.Ledger)

	a.Budget = budget.New(d.budget, a.Writer, budget.WithClock(a.Now))
	a.Recurring = recurring.NewService(d.rules, a.Writer, a.Ledger,
		recurring.WithIDGenerator(o.newID),
		recurring.WithClock(a.Now),
		recurring.WithMaxCatchUp(a.Config.Recurring.MaxCatchUp),
	)
	a.Goals = goals.NewService(d.goals, a.Writer, a.Accounts,
		goals.WithIDGenerator(o.newID),
		goals.WithClock(a.Now),
	)

	if len(seeds) > 0 {
		return a.Writer.EnqueueMany(seeds...)
	}
	return nil
}

// Now is the app clock in the configured timezone.
func (a *App) Now() time.Time { return a.now().In(a.Location) }

// Flush waits for queued writes and reports keys that failed to save.
func (a *App) Flush(ctx context.Context) error {
	return a.Writer.Flush(ctx)
}

// Close flushes and releases the store.
func (a *App) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	if cerr := closeStore(a.Store); err == nil {
		err = cerr
	}
	a.Log.Debug().Strs("unsaved", a.Writer.Unsaved()).Msg("closed")
	return err
}

func closeStore(s store.Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
