package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUUID(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestSequence(t *testing.T) {
	gen := Sequence("tx")
	assert.Equal(t, "tx-001", gen())
	assert.Equal(t, "tx-002", gen())

	other := Sequence("rule")
	assert.Equal(t, "rule-001", other())
}

func TestFormatSeq(t *testing.T) {
	tests := []struct {
		prefix string
		seq    int
		want   string
	}{
		{"tx", 1, "tx-001"},
		{"tx", 99, "tx-099"},
		{"goal", 1234, "goal-1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSeq(tt.prefix, tt.seq))
	}
}

func TestShort(t *testing.T) {
	assert.Equal(t, "tx-001", Short("tx-001"))
	assert.Equal(t, "3f2a9c1e", Short("3f2a9c1e-0000-4000-8000-000000000000"))
}

func TestResolve(t *testing.T) {
	ids := []string{"3f2a9c1e-aaaa", "3f2b0000-bbbb", "tx-001"}

	got, err := Resolve("3f2a", ids)
	require.NoError(t, err)
	assert.Equal(t, "3f2a9c1e-aaaa", got)

	got, err = Resolve("tx-001", ids)
	require.NoError(t, err)
	assert.Equal(t, "tx-001", got)

	_, err = Resolve("3f2", ids)
	assert.Error(t, err)

	// Unknown refs pass through so callers report NotFound with the user's input.
	got, err = Resolve("zzz", ids)
	require.NoError(t, err)
	assert.Equal(t, "zzz", got)

	_, err = Resolve(" ", ids)
	assert.Error(t, err)
}
