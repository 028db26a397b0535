// Package storetest holds the behavior every Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/store"
)

// Run exercises the Store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key loads nil", func(t *testing.T) {
		s := newStore(t)
		data, err := s.Load(ctx, store.KeyTransactions)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("save then load", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, store.KeyAccounts, []byte(`[{"id":"cash"}]`)))
		data, err := s.Load(ctx, store.KeyAccounts)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"cash"}]`, string(data))
	})

	t.Run("save overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, store.KeyBudget, []byte(`{"monthlyBudget":1}`)))
		require.NoError(t, s.Save(ctx, store.KeyBudget, []byte(`{"monthlyBudget":2}`)))
		data, err := s.Load(ctx, store.KeyBudget)
		require.NoError(t, err)
		assert.JSONEq(t, `{"monthlyBudget":2}`, string(data))
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, store.KeyTags, []byte(`["a"]`)))
		require.NoError(t, s.Save(ctx, store.KeyMerchants, []byte(`["b"]`)))
		tags, err := s.Load(ctx, store.KeyTags)
		require.NoError(t, err)
		merchants, err := s.Load(ctx, store.KeyMerchants)
		require.NoError(t, err)
		assert.JSONEq(t, `["a"]`, string(tags))
		assert.JSONEq(t, `["b"]`, string(merchants))
	})

	t.Run("cancelled save fails", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, s.Save(cctx, store.KeyGoals, []byte(`[]`)))
	})
}
