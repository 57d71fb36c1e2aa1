package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "smart-expense-tracker")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "smart-expense-tracker", `{"budget":3500}`))
	require.NoError(t, s.Set(ctx, "smart-expense-tracker", `{"budget":4000}`))

	v, ok, err := s.Get(ctx, "smart-expense-tracker")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"budget":4000}`, v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		assert.Error(t, s.Set(context.Background(), key, "x"), "key %q", key)
	}
}
