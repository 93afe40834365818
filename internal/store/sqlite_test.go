package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestSQLiteStore_GetSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "view.bids")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "view.bids", `{"pageSize":20}`))
	require.NoError(t, s.Set(ctx, "view.bids", `{"pageSize":50}`))

	v, ok, err := s.Get(ctx, "view.bids")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"pageSize":50}`, v)

	require.NoError(t, s.Delete(ctx, "view.bids"))
	require.NoError(t, s.Delete(ctx, "view.bids"))
	_, ok, err = s.Get(ctx, "view.bids")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestSQLiteStore_Reopen tests that migrations are not reapplied.
func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "crmterm.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	var versions int
	require.NoError(t, s.db.Get(&versions, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, 1, versions)
}

// TestSQLiteStore_NewerSchema tests that a database from a newer build is
// refused instead of being written with an unknown layout.
func TestSQLiteStore_NewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crmterm.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", len(migrations)+1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewSQLiteStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than this build")
}
