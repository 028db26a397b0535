package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/pocket/internal/store"
	"github.com/cleared-dev/pocket/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWith(func(key string) error {
		if key == "tags" {
			return boom
		}
		return nil
	})
	ctx := context.Background()
	assert.ErrorIs(t, s.Save(ctx, "tags", []byte(`[]`)), boom)
	assert.NoError(t, s.Save(ctx, "merchants", []byte(`[]`)))
	assert.Equal(t, 0, s.Saves("tags"))
	assert.Equal(t, 1, s.Saves("merchants"))

	s.FailWith(nil)
	assert.NoError(t, s.Save(ctx, "tags", []byte(`[]`)))
}
