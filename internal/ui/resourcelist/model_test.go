package resourcelist

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/ui/overlay"
)

type fakeSource struct {
	mu    sync.Mutex
	rows  []model.Row
	err   error
	calls []api.ListOptions
}

func (f *fakeSource) fetch(_ context.Context, opts api.ListOptions) ([]model.Row, model.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, model.Pagination{}, f.err
	}
	return f.rows, model.Pagination{Page: opts.Page, Total: len(f.rows), TotalPages: 3}, nil
}

func equipment() []model.Row {
	return []model.Row{
		model.Equipment{ID: 1, Name: "Tracker", ProductCode: "T-1", SellingPrice: 100},
		model.Equipment{ID: 2, Name: "Antenna", ProductCode: "A-7", SellingPrice: 25},
		model.Equipment{ID: 3, Name: "Sensor", ProductCode: "S-2", SellingPrice: 60},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newList(t *testing.T, src *fakeSource, serverPaged bool, pageSize int) (Model, *overlay.Stack) {
	t.Helper()
	reg := prefs.NewRegistry(prefs.NewMemoryStorage())
	reg.Register(prefs.ViewEquipment, model.EquipmentColumns, nil, pageSize)
	stack := &overlay.Stack{}

	m := New(Config{
		View:     prefs.ViewEquipment,
		Title:    "Equipment",
		Columns:  model.EquipmentColumns,
		Source:   Source{ServerPaged: serverPaged, Fetch: src.fetch},
		Registry: reg,
		Overlays: stack,
		Keys:     keys.DefaultKeyMap(),
	}, 120, 30)

	// Settings load, then the first fetch.
	m, cmd := m.Update(m.Init()())
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m, stack
}

func ids(rows []model.Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.RowID()
	}
	return out
}

func TestLoadsRowsAfterSettings(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	assert.Equal(t, []int64{1, 2, 3}, ids(m.Rows()))
	assert.Len(t, src.calls, 1)
	assert.NoError(t, m.Err())
}

func TestSelectionSurvivesRefresh(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	row, ok := m.Selected()
	require.True(t, ok, "first row is selected after the load")
	assert.Equal(t, int64(1), row.RowID())

	m, _ = m.Update(runes("j"))
	cmd := m.Refresh()
	m, _ = m.Update(cmd())
	row, ok = m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(2), row.RowID(), "cursor position is kept across a reload")

	// Column focus rebuilds the table too.
	m, _ = m.Update(runes("l"))
	_, ok = m.Selected()
	assert.True(t, ok)

	src.rows = equipment()[:1]
	cmd = m.Refresh()
	m, _ = m.Update(cmd())
	row, ok = m.Selected()
	require.True(t, ok, "cursor is clamped into a shorter result")
	assert.Equal(t, int64(1), row.RowID())
}

func TestStaleFetchIsDropped(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	first := m.Refresh()
	second := m.Refresh()

	src.rows = equipment()[:1]
	m, _ = m.Update(second())
	assert.Equal(t, []int64{1}, ids(m.Rows()))

	src.rows = equipment()
	m, _ = m.Update(first())
	assert.Equal(t, []int64{1}, ids(m.Rows()), "superseded result must not replace newer rows")
}

func TestDeactivateDropsInFlightResult(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	cmd := m.Refresh()
	m.Deactivate()

	src.rows = nil
	m, _ = m.Update(cmd())
	assert.Len(t, m.Rows(), 3)
}

func TestFetchErrorShownInline(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	src.err = errors.New("boom")
	cmd := m.Refresh()
	m, _ = m.Update(cmd())

	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "boom")
	assert.Len(t, m.Rows(), 3, "previous rows stay visible")
}

func TestClientSideSortOnFocusedColumn(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	// Focus "name" and sort ascending, then descending.
	m, _ = m.Update(runes("l"))
	m, _ = m.Update(runes("s"))
	assert.Equal(t, []int64{2, 3, 1}, ids(m.Rows()))

	m, _ = m.Update(runes("s"))
	assert.Equal(t, []int64{1, 3, 2}, ids(m.Rows()))
	assert.Len(t, src.calls, 1, "client-side sort does not refetch")
}

func TestClientSidePaging(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 2)

	page, total := m.Page()
	assert.Equal(t, 1, page)
	assert.Equal(t, 2, total)
	assert.Len(t, m.Rows(), 2)

	m, _ = m.Update(runes("]"))
	assert.Equal(t, []int64{3}, ids(m.Rows()))

	m, _ = m.Update(runes("]"))
	page, _ = m.Page()
	assert.Equal(t, 2, page, "cannot page past the end")

	m, _ = m.Update(runes("["))
	page, _ = m.Page()
	assert.Equal(t, 1, page)
}

func TestServerPagedSortRefetches(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, true, 20)

	m, cmd := m.Update(runes("s"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	require.Len(t, src.calls, 2)
	last := src.calls[1]
	assert.Equal(t, "id", last.SortBy)
	assert.Equal(t, api.SortAsc, last.SortOrder)
	assert.Equal(t, 20, last.Limit)
	assert.Equal(t, 1, last.Page)

	m, cmd = m.Update(runes("]"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, 2, src.calls[2].Page)
	page, total := m.Page()
	assert.Equal(t, 2, page)
	assert.Equal(t, 3, total)
}

func TestSearch(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())
	for _, r := range "ant" {
		m, _ = m.Update(runes(string(r)))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Searching())
	assert.Equal(t, []int64{2}, ids(m.Rows()))

	m, _ = m.Update(runes("/"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.Rows(), 3)
}

func TestCreateRequiresPermission(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, _ := newList(t, src, false, 0)

	m, cmd := m.Update(runes("n"))
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.Err(), ErrCreateForbidden)

	m.SetCanCreate(true)
	_, cmd = m.Update(runes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenFormMsg{View: prefs.ViewEquipment}, cmd())
}

func TestDeleteConfirmation(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, stack := newList(t, src, false, 0)

	m, _ = m.Update(runes("d"))
	require.True(t, m.IsOverlayOpen())
	assert.Contains(t, m.View(), "Delete #1?")

	require.True(t, stack.Route(runes("y")))
	m, cmd := m.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteMsg{View: prefs.ViewEquipment, ID: 1}, cmd())
	assert.False(t, m.IsOverlayOpen())
}

func TestDeleteCancelledByOutsideKey(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, stack := newList(t, src, false, 0)

	m, _ = m.Update(runes("d"))
	assert.False(t, stack.Route(runes("q")), "outside key is consumed")
	assert.False(t, m.IsOverlayOpen())
}

func TestColumnToggleSavesSettings(t *testing.T) {
	src := &fakeSource{rows: equipment()}
	m, stack := newList(t, src, false, 0)

	m, _ = m.Update(runes("v"))
	require.True(t, m.IsOverlayOpen())

	// Cursor starts on the required "id" column; toggling it is a no-op.
	m, _ = m.Update(runes(" "))
	assert.True(t, m.Settings().Visible["id"])

	// "productCode" is third in the default order.
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	m, cmd := m.Update(runes(" "))
	require.NotNil(t, cmd)
	saved := cmd().(SettingsSavedMsg)
	require.NoError(t, saved.Err)
	assert.False(t, m.Settings().Visible["productCode"])

	m, _ = m.Update(runes("K"))
	assert.Equal(t, "productCode", m.Settings().Order[1])

	stack.Route(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.IsOverlayOpen())
}

func TestFilterValues(t *testing.T) {
	reg := prefs.NewRegistry(prefs.NewMemoryStorage())
	filters := []model.Filter{{Column: "productCode", Title: "Code", Visible: true}}
	reg.Register(prefs.ViewEquipment, model.EquipmentColumns, filters, 0)
	stack := &overlay.Stack{}
	src := &fakeSource{rows: equipment()}

	m := New(Config{
		View:     prefs.ViewEquipment,
		Title:    "Equipment",
		Columns:  model.EquipmentColumns,
		Filters:  filters,
		Source:   Source{Fetch: src.fetch},
		Registry: reg,
		Overlays: stack,
		Keys:     keys.DefaultKeyMap(),
	}, 120, 30)
	m, cmd := m.Update(m.Init()())
	m, _ = m.Update(cmd())

	m, _ = m.Update(runes("f"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	// Values sort as text: A-7, S-2, T-1.
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes(" "))
	assert.Equal(t, []int64{3}, ids(m.Rows()))
	assert.Contains(t, m.View(), "Code: S-2")

	// Closing the values dropdown leaves the filter list open.
	stack.Route(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, m.IsOverlayOpen())
	m, _ = m.Update(runes("c"))
	assert.Len(t, m.Rows(), 3)
}
