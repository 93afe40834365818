package testutil

import (
	"testing"

	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestRegistry returns a preferences registry with every resource view
// registered, persisting to a fresh in-memory store.
func NewTestRegistry(t *testing.T, pageSize int) (*prefs.Registry, *store.SQLiteStore) {
	t.Helper()

	s := NewTestStore(t)
	r := prefs.NewRegistry(s)
	r.RegisterDefaults(pageSize)
	return r, s
}
