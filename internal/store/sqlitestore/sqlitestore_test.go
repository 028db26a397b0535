package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocket/internal/store"
	"github.com/cleared-dev/pocket/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pocket.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pocket.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, store.KeyCategories, []byte(`["Food"]`)))
	require.NoError(t, s.Close())

	// Migrations must be a no-op the second time.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	data, err := s.Load(ctx, store.KeyCategories)
	require.NoError(t, err)
	assert.JSONEq(t, `["Food"]`, string(data))
	assert.Equal(t, uint(1), s.SchemaVersion())
}

func TestOpenRejectsDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pocket.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE ` + schemaTable + ` SET dirty = 1`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 1 is dirty")
}
