package prefs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/tests/testutil"
)

func TestDefaults(t *testing.T) {
	s := prefs.Defaults(model.BidColumns, model.BidFilters, 20)

	assert.Equal(t, model.Keys(model.BidColumns), s.Order)
	assert.True(t, s.Visible["tema"])
	assert.False(t, s.Visible["upd"])
	assert.False(t, s.Filters["status"])
	assert.Equal(t, 20, s.PageSize)
}

// TestMerge tests overlaying saved state over defaults.
func TestMerge(t *testing.T) {
	defaults := prefs.Defaults(model.ObjectColumns, model.ObjectFilters, 20)
	saved := prefs.ViewSettings{
		Visible:  map[string]bool{"stateNumber": false, "gone": true},
		Order:    []string{"responsible", "gone", "id", "responsible"},
		Filters:  map[string]bool{"client": false, "legacy": true},
		PageSize: 50,
	}

	got := prefs.Merge(defaults, saved)

	assert.Equal(t, []string{"responsible", "id", "client", "brandModel", "stateNumber"}, got.Order)
	assert.False(t, got.Visible["stateNumber"])
	assert.True(t, got.Visible["brandModel"])
	assert.NotContains(t, got.Visible, "gone")
	assert.False(t, got.Filters["client"])
	assert.NotContains(t, got.Filters, "legacy")
	assert.Equal(t, 50, got.PageSize)

	// Defaults are not mutated.
	assert.True(t, defaults.Visible["stateNumber"])
}

func TestViewSettings_ToggleAndMove(t *testing.T) {
	s := prefs.Defaults(model.EquipmentColumns, nil, 20)

	s.Toggle(model.EquipmentColumns, "id")
	assert.True(t, s.Visible["id"], "required column stays visible")

	s.Toggle(model.EquipmentColumns, "description")
	assert.True(t, s.Visible["description"])

	s.Move("description", -100)
	assert.Equal(t, "description", s.Order[0])
	s.Move("description", 2)
	assert.Equal(t, "description", s.Order[2])
	s.Move("missing", 1)
	assert.Len(t, s.Order, len(model.EquipmentColumns))

	cols := s.VisibleColumns(model.EquipmentColumns)
	require.NotEmpty(t, cols)
	assert.Equal(t, "id", cols[0].Key)
	assert.Equal(t, "description", cols[2].Key)
}

// TestRegistry_SQLiteRoundTrip tests persistence through the SQLite port.
func TestRegistry_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, st := testutil.NewTestRegistry(t, 20)

	s, err := r.Load(ctx, prefs.ViewBids)
	require.NoError(t, err)
	s.Toggle(model.BidColumns, "upd")
	s.ToggleFilter("status")
	s.PageSize = 40
	require.NoError(t, r.Save(ctx, prefs.ViewBids, s))

	// A fresh registry over the same store sees the saved layout.
	fresh := prefs.NewRegistry(st)
	fresh.RegisterDefaults(20)
	got, err := fresh.Load(ctx, prefs.ViewBids)
	require.NoError(t, err)
	assert.True(t, got.Visible["upd"])
	assert.True(t, got.Filters["status"])
	assert.Equal(t, 40, got.PageSize)

	filters := got.VisibleFilters(model.BidFilters)
	require.Len(t, filters, 1)
	assert.Equal(t, "status", filters[0].Column)
}

// TestRegistry_RequiredColumnsForced tests that saved state cannot hide required columns.
func TestRegistry_RequiredColumnsForced(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, "view.bids", `{"visibleColumns":{"id":false,"status":false,"tema":false}}`))

	r := prefs.NewRegistry(mem)
	r.RegisterDefaults(20)

	s, err := r.Load(ctx, prefs.ViewBids)
	require.NoError(t, err)
	assert.True(t, s.Visible["id"])
	assert.True(t, s.Visible["status"])
	assert.False(t, s.Visible["tema"])
}

func TestRegistry_CorruptFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, "view.contracts", `{not json`))

	r := prefs.NewRegistry(mem)
	r.RegisterDefaults(20)

	s, err := r.Load(ctx, prefs.ViewContracts)
	require.NoError(t, err)
	assert.Equal(t, prefs.Defaults(model.ContractColumns, model.ContractFilters, 20), s)
}

func TestRegistry_UnknownView(t *testing.T) {
	r := prefs.NewRegistry(prefs.NewMemoryStorage())
	_, err := r.Load(context.Background(), prefs.View("nope"))
	assert.Error(t, err)
}

func TestRegistry_Reset(t *testing.T) {
	ctx := context.Background()
	storage := prefs.NewMemoryStorage()
	r := prefs.NewRegistry(storage)
	r.RegisterDefaults(20)

	s, err := r.Load(ctx, prefs.ViewEquipment)
	require.NoError(t, err)
	s.Toggle(model.EquipmentColumns, "name")
	s.Toggle(model.EquipmentColumns, "productCode")
	require.NoError(t, r.Save(ctx, prefs.ViewEquipment, s))

	reset, err := r.Reset(ctx, prefs.ViewEquipment)
	require.NoError(t, err)
	assert.True(t, reset.Visible["productCode"])

	loaded, err := r.Load(ctx, prefs.ViewEquipment)
	require.NoError(t, err)
	assert.Equal(t, reset, loaded)

	_, found, err := storage.Get(ctx, "view.equipment")
	require.NoError(t, err)
	assert.False(t, found, "defaults are not persisted")
}
