package taxonomy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/ledger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
	"github.com/cleared-dev/pocket/internal/store/memstore"
)

type env struct {
	mem    *memstore.Store
	writer *store.Writer
	cats   *Categories
	ledger *ledger.Ledger
}

func newEnv(t require.TestingT, cats []string) *env {
	mem := memstore.New()
	w := store.NewWriter(mem)
	c := NewCategories(cats, w, "")
	l := ledger.New(nil, w,
		ledger.WithIDGenerator(id.Sequence("tx")),
		ledger.WithCategories(c),
	)
	c.SetRewriter(l)
	return &env{mem: mem, writer: w, cats: c, ledger: l}
}

func (e *env) add(t require.TestingT, category string) string {
	txID, err := e.ledger.Add(model.Transaction{
		Type: model.TxExpense, Amount: decimal.NewFromInt(5), Category: category,
		Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return txID
}

func (e *env) persisted(t *testing.T) ([]string, []model.Transaction) {
	t.Helper()
	require.NoError(t, e.writer.Flush(context.Background()))
	var cats []string
	var txns []model.Transaction
	data, err := e.mem.Load(context.Background(), store.KeyCategories)
	require.NoError(t, err)
	if data != nil {
		require.NoError(t, json.Unmarshal(data, &cats))
	}
	data, err = e.mem.Load(context.Background(), store.KeyTransactions)
	require.NoError(t, err)
	if data != nil {
		require.NoError(t, json.Unmarshal(data, &txns))
	}
	return cats, txns
}

func TestSetAddIsIdempotent(t *testing.T) {
	w := store.NewWriter(memstore.New())
	s := NewSet(store.KeyTags, "tag", []string{"work", " work", ""}, w)
	assert.Equal(t, []string{"work"}, s.All())

	require.NoError(t, s.Add("travel"))
	require.NoError(t, s.Add(" travel "))
	assert.Equal(t, []string{"work", "travel"}, s.All())
	assert.True(t, s.Contains("travel"))
	assert.Equal(t, 2, s.Len())

	assert.True(t, model.IsValidation(s.Add("  ")))
	require.NoError(t, s.Remove("work"))
	assert.True(t, model.IsNotFound(s.Remove("work")))
	assert.Equal(t, []string{"travel"}, s.All())
}

func TestSuggestions(t *testing.T) {
	s := NewSet(store.KeyMerchants, "merchant", []string{
		"Starbucks", "Star Market", "Shell", "Safeway", "Stop & Shop", "Target", "Staples",
	}, nil)

	assert.Equal(t, []string{"Starbucks", "Star Market", "Shell", "Safeway", "Stop & Shop"}, s.Suggestions("", 0))
	assert.Equal(t, []string{"Starbucks", "Star Market"}, s.Suggestions("STAR", 0))
	assert.Equal(t, []string{"Starbucks"}, s.Suggestions("star", 1))
	assert.Empty(t, s.Suggestions("zzz", 3))
}

func TestNewCategoriesDefaults(t *testing.T) {
	c := NewCategories(nil, nil, "")
	assert.Equal(t, DefaultCategories, c.All())
	assert.Equal(t, "Others", c.Fallback())
}

func TestAddCategory(t *testing.T) {
	e := newEnv(t, nil)
	require.NoError(t, e.cats.Add("Health"))
	assert.True(t, model.IsConflict(e.cats.Add("Food")))
	assert.True(t, model.IsValidation(e.cats.Add(" ")))

	cats, _ := e.persisted(t)
	assert.Equal(t, append(DefaultCategories, "Health"), cats)
}

func TestRenameCascades(t *testing.T) {
	e := newEnv(t, nil)
	a := e.add(t, "Food")
	b := e.add(t, "Bills")
	deleted := e.add(t, "Food")
	require.NoError(t, e.ledger.SoftDelete(deleted))

	n, err := e.cats.Rename("Food", "Groceries")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"Groceries", "Transport", "Bills", "Shopping", "Others"}, e.cats.All())

	got, _ := e.ledger.Get(a)
	assert.Equal(t, "Groceries", got.Category)
	got, _ = e.ledger.Get(b)
	assert.Equal(t, "Bills", got.Category)

	cats, txns := e.persisted(t)
	assert.Equal(t, e.cats.All(), cats)
	for _, tx := range txns {
		assert.NotEqual(t, "Food", tx.Category)
	}
}

func TestRenameErrors(t *testing.T) {
	e := newEnv(t, nil)
	e.add(t, "Food")

	_, err := e.cats.Rename("Food", "Bills")
	assert.True(t, model.IsConflict(err))
	_, err = e.cats.Rename("Nope", "Other")
	assert.True(t, model.IsNotFound(err))
	_, err = e.cats.Rename("Food", "")
	assert.True(t, model.IsValidation(err))

	n, err := e.cats.Rename("Food", "Food")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, DefaultCategories, e.cats.All())
}

func TestDeleteMovesToFallback(t *testing.T) {
	e := newEnv(t, []string{"Food", "Bills"})
	a := e.add(t, "Food")

	n, err := e.cats.Delete("Food")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Bills", "Others"}, e.cats.All(), "fallback is re-added")

	got, _ := e.ledger.Get(a)
	assert.Equal(t, "Others", got.Category)

	cats, txns := e.persisted(t)
	assert.Equal(t, []string{"Bills", "Others"}, cats)
	require.Len(t, txns, 1)
	assert.Equal(t, "Others", txns[0].Category)
}

func TestDeleteFallbackItself(t *testing.T) {
	e := newEnv(t, nil)
	a := e.add(t, "Others")

	n, err := e.cats.Delete("Others")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, e.cats.Contains("Others"))
	got, _ := e.ledger.Get(a)
	assert.Equal(t, "Others", got.Category)
}

func TestDeleteLastCategoryRejected(t *testing.T) {
	e := newEnv(t, []string{"Others"})

	_, err := e.cats.Delete("Others")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, []string{"Others"}, e.cats.All())

	_, err = e.cats.Delete("Ghost")
	assert.True(t, model.IsNotFound(err))
}

func TestPropertyRenameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newEnv(t, nil)
		before := map[string]string{}
		for i, n := 0, rapid.IntRange(0, 20).Draw(t, "count"); i < n; i++ {
			cat := rapid.SampledFrom(DefaultCategories).Draw(t, "category")
			before[e.add(t, cat)] = cat
		}
		catsBefore := e.cats.All()

		x := rapid.SampledFrom(DefaultCategories).Draw(t, "x")
		y := rapid.StringMatching(`[A-Z][a-z]{2,8}`).
			Filter(func(s string) bool { return !e.cats.Contains(s) }).Draw(t, "y")

		_, err := e.cats.Rename(x, y)
		require.NoError(t, err)
		_, err = e.cats.Rename(y, x)
		require.NoError(t, err)

		assert.Equal(t, catsBefore, e.cats.All())
		for txID, cat := range before {
			got, ok := e.ledger.Get(txID)
			require.True(t, ok)
			assert.Equal(t, cat, got.Category)
		}
	})
}
