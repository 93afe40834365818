// Package resourcelist renders one paginated, filterable resource table.
package resourcelist

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/listing"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/theme"
	"github.com/nhle/crmterm/internal/ui/overlay"
)

// SettingsLoadedMsg carries saved table settings for a view.
type SettingsLoadedMsg struct {
	View     prefs.View
	Settings prefs.ViewSettings
	Err      error
}

// SettingsSavedMsg reports the result of persisting table settings.
type SettingsSavedMsg struct {
	View prefs.View
	Err  error
}

// RowsLoadedMsg is sent when a fetch completes. Seq identifies the fetch;
// results of superseded fetches are dropped.
type RowsLoadedMsg struct {
	View       prefs.View
	Seq        int
	Rows       []model.Row
	Pagination model.Pagination
	Err        error
}

// OpenDetailMsg asks the app to show the selected row.
type OpenDetailMsg struct {
	View prefs.View
	Row  model.Row
}

// OpenFormMsg asks the app to open the create form, or the edit form when
// Row is set.
type OpenFormMsg struct {
	View prefs.View
	Row  model.Row
}

// DeleteMsg is sent after the user confirms deletion of a row.
type DeleteMsg struct {
	View prefs.View
	ID   int64
}

// ErrCreateForbidden is shown when the session lacks the create permission.
var ErrCreateForbidden = errors.New("you do not have permission to create records here")

// Config wires a table to its data and settings.
type Config struct {
	View     prefs.View
	Title    string
	Columns  []model.Column
	Filters  []model.Filter
	Source   Source
	Registry *prefs.Registry
	Overlays *overlay.Stack
	Keys     *keys.KeyMap
}

// Model is a resource table with search, sort, filters and paging.
type Model struct {
	view     prefs.View
	title    string
	columns  []model.Column
	filters  []model.Filter
	source   Source
	registry *prefs.Registry
	overlays *overlay.Stack
	keys     *keys.KeyMap

	settings prefs.ViewSettings
	table    table.Model

	searchInput textinput.Model
	searchMode  bool
	search      string

	all        []model.Row
	shown      []model.Row
	selected   map[string][]string
	sort       listing.Sort
	focus      int
	page       int
	total      int
	totalPages int

	fetchSeq int
	cancel   context.CancelFunc
	loading  bool
	err      error

	canCreate bool

	filterPicker picker
	valuePicker  picker
	columnPicker picker
	filterColumn string
	confirmID    int64

	width  int
	height int
}

// New creates a resource table. Settings start at the column defaults
// until the saved ones load.
func New(cfg Config, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search " + strings.ToLower(cfg.Title) + "..."
	si.Prompt = "/ "
	si.Width = max(width-4, 10)

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(max(height-4, 3)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue)
	t.SetStyles(styles)

	m := Model{
		view:        cfg.View,
		title:       cfg.Title,
		columns:     cfg.Columns,
		filters:     cfg.Filters,
		source:      cfg.Source,
		registry:    cfg.Registry,
		overlays:    cfg.Overlays,
		keys:        cfg.Keys,
		settings:    prefs.Defaults(cfg.Columns, cfg.Filters, 0),
		table:       t,
		searchInput: si,
		selected:    make(map[string][]string),
		page:        1,
		totalPages:  1,
		width:       width,
		height:      height,
	}
	m.refreshTable()
	return m
}

// Name returns the view the table shows.
func (m Model) Name() prefs.View { return m.view }

// Title returns the tab title.
func (m Model) Title() string { return m.title }

// Init loads the saved settings. Rows are fetched once they arrive.
func (m Model) Init() tea.Cmd {
	return m.loadSettings()
}

func (m Model) loadSettings() tea.Cmd {
	reg, view := m.registry, m.view
	return func() tea.Msg {
		s, err := reg.Load(context.Background(), view)
		return SettingsLoadedMsg{View: view, Settings: s, Err: err}
	}
}

func (m Model) saveSettings() tea.Cmd {
	reg, view, s := m.registry, m.view, m.settings.Clone()
	return func() tea.Msg {
		return SettingsSavedMsg{View: view, Err: reg.Save(context.Background(), view, s)}
	}
}

// Update handles messages addressed to this table.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SettingsLoadedMsg:
		if msg.View != m.view {
			return m, nil
		}
		if msg.Err != nil {
			m.err = fmt.Errorf("loading table settings: %w", msg.Err)
		}
		if msg.Settings.Order != nil {
			m.settings = msg.Settings
		}
		m.refreshTable()
		cmd := m.Refresh()
		return m, cmd

	case SettingsSavedMsg:
		if msg.View == m.view && msg.Err != nil {
			m.err = fmt.Errorf("saving table settings: %w", msg.Err)
		}
		return m, nil

	case RowsLoadedMsg:
		if msg.View != m.view || msg.Seq != m.fetchSeq {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.all = msg.Rows
		if m.source.ServerPaged {
			m.shown = msg.Rows
			m.total = msg.Pagination.Total
			m.totalPages = max(msg.Pagination.TotalPages, 1)
			if msg.Pagination.Page > 0 {
				m.page = msg.Pagination.Page
			}
			m.page = listing.ClampPage(m.page, m.totalPages)
			m.refreshTable()
			return m, nil
		}
		m.apply()
		return m, nil

	case tea.KeyMsg:
		if top, ok := m.overlays.Top(); ok && m.ownsOverlay(top.ID) {
			return m.handleOverlayKeys(top.ID, msg)
		}
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		m.search = strings.TrimSpace(m.searchInput.Value())
		m.page = 1
		cmd := m.requery()
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		if m.search == "" {
			return m, nil
		}
		m.search = ""
		m.page = 1
		cmd := m.requery()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input when no overlay or search is active.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.search)
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Left):
		m.focus = max(m.focus-1, 0)
		m.refreshTable()
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.focus = min(m.focus+1, max(len(m.visibleColumns())-1, 0))
		m.refreshTable()
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		col, ok := m.focusedColumn()
		if !ok {
			return m, nil
		}
		m.sort = m.sort.Toggle(col.Key)
		m.page = 1
		cmd := m.requery()
		return m, cmd

	case key.Matches(msg, m.keys.PrevPage):
		if m.page <= 1 {
			return m, nil
		}
		m.page--
		cmd := m.requery()
		return m, cmd

	case key.Matches(msg, m.keys.NextPage):
		if m.page >= m.totalPages {
			return m, nil
		}
		m.page++
		cmd := m.requery()
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		m.openFilters()
		return m, nil

	case key.Matches(msg, m.keys.Columns):
		m.openColumns()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Select):
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		view := m.view
		return m, func() tea.Msg { return OpenDetailMsg{View: view, Row: row} }

	case key.Matches(msg, m.keys.New):
		if !m.canCreate {
			m.err = ErrCreateForbidden
			return m, nil
		}
		view := m.view
		return m, func() tea.Msg { return OpenFormMsg{View: view} }

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		view := m.view
		return m, func() tea.Msg { return OpenFormMsg{View: view, Row: row} }

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.confirmID = row.RowID()
		m.overlays.Push(overlay.Entry{ID: m.overlayID("confirm"), Owns: confirmOwns})
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) overlayID(name string) string {
	return string(m.view) + ":" + name
}

func (m Model) ownsOverlay(id string) bool {
	return strings.HasPrefix(id, string(m.view)+":")
}

// IsOverlayOpen reports whether one of this table's dropdowns is open.
func (m Model) IsOverlayOpen() bool {
	top, ok := m.overlays.Top()
	return ok && m.ownsOverlay(top.ID)
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

func (m *Model) openFilters() {
	m.filterPicker = m.filtersPicker()
	m.overlays.Push(overlay.Entry{ID: m.overlayID("filters"), Owns: pickerOwns("c")})
}

func (m Model) filtersPicker() picker {
	p := picker{title: "Filters", hint: "enter values · space show/hide · c clear"}
	for _, f := range m.filters {
		note := "all"
		if sel := m.selected[f.Column]; len(sel) > 0 {
			note = fmt.Sprintf("%d selected", len(sel))
		}
		p.items = append(p.items, pickerItem{
			key:     f.Column,
			label:   f.Title,
			checked: m.settings.Filters[f.Column],
			note:    note,
		})
	}
	return p
}

func (m *Model) openFilterValues(column string) {
	m.filterColumn = column
	m.valuePicker = m.valuesPicker(column)
	m.overlays.Push(overlay.Entry{ID: m.overlayID("values"), Owns: pickerOwns()})
}

func (m Model) valuesPicker(column string) picker {
	title := column
	for _, f := range m.filters {
		if f.Column == column {
			title = f.Title
		}
	}
	values := listing.Distinct(m.all, column)
	for _, v := range m.selected[column] {
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	p := picker{title: title, hint: "space toggle · esc close"}
	for _, v := range values {
		p.items = append(p.items, pickerItem{
			key:     v,
			label:   v,
			checked: slices.Contains(m.selected[column], v),
		})
	}
	return p
}

func (m *Model) openColumns() {
	m.columnPicker = m.columnsPicker()
	m.overlays.Push(overlay.Entry{ID: m.overlayID("columns"), Owns: pickerOwns("K", "J")})
}

func (m Model) columnsPicker() picker {
	p := picker{title: "Columns", hint: "space show/hide · K/J move"}
	for _, k := range m.settings.Order {
		c, ok := model.Lookup(m.columns, k)
		if !ok {
			continue
		}
		note := ""
		if c.Required {
			note = "required"
		}
		p.items = append(p.items, pickerItem{
			key:     c.Key,
			label:   c.Title,
			checked: m.settings.Visible[c.Key],
			note:    note,
		})
	}
	return p
}

// handleOverlayKeys processes keys forwarded to this table's top overlay.
func (m Model) handleOverlayKeys(id string, msg tea.KeyMsg) (Model, tea.Cmd) {
	if p := m.activePicker(id); p != nil {
		switch msg.String() {
		case "up", "k":
			p.move(-1)
			return m, nil
		case "down", "j":
			p.move(1)
			return m, nil
		}
	}

	switch id {
	case m.overlayID("confirm"):
		m.overlays.Close(id)
		if msg.String() == "n" {
			return m, nil
		}
		view, rowID := m.view, m.confirmID
		return m, func() tea.Msg { return DeleteMsg{View: view, ID: rowID} }

	case m.overlayID("filters"):
		it, ok := m.filterPicker.current()
		if !ok {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			m.openFilterValues(it.key)
			return m, nil
		case " ":
			m.settings.ToggleFilter(it.key)
			m.filterPicker = m.filtersPicker()
			m.filterPicker.focus(it.key)
			return m, m.saveSettings()
		case "c":
			if len(m.selected[it.key]) == 0 {
				return m, nil
			}
			delete(m.selected, it.key)
			m.filterPicker = m.filtersPicker()
			m.filterPicker.focus(it.key)
			m.page = 1
			cmd := m.requery()
			return m, cmd
		}

	case m.overlayID("values"):
		it, ok := m.valuePicker.current()
		if !ok {
			return m, nil
		}
		m.selected[m.filterColumn] = listing.ToggleValue(m.selected[m.filterColumn], it.key)
		if len(m.selected[m.filterColumn]) == 0 {
			delete(m.selected, m.filterColumn)
		}
		m.valuePicker = m.valuesPicker(m.filterColumn)
		m.valuePicker.focus(it.key)
		m.filterPicker = m.filtersPicker()
		m.filterPicker.focus(m.filterColumn)
		m.page = 1
		cmd := m.requery()
		return m, cmd

	case m.overlayID("columns"):
		it, ok := m.columnPicker.current()
		if !ok {
			return m, nil
		}
		switch msg.String() {
		case "enter", " ":
			m.settings.Toggle(m.columns, it.key)
		case "K":
			m.settings.Move(it.key, -1)
		case "J":
			m.settings.Move(it.key, 1)
		}
		m.columnPicker = m.columnsPicker()
		m.columnPicker.focus(it.key)
		m.focus = min(m.focus, max(len(m.visibleColumns())-1, 0))
		m.refreshTable()
		if m.source.ServerPaged {
			return m, m.saveSettings()
		}
		m.apply()
		return m, m.saveSettings()
	}
	return m, nil
}

// Refresh re-fetches rows from the source.
func (m *Model) Refresh() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.fetchSeq++
	m.loading = true

	seq, view, src := m.fetchSeq, m.view, m.source
	opts := m.listOptions()
	return func() tea.Msg {
		defer cancel()
		rows, pg, err := src.Fetch(ctx, opts)
		return RowsLoadedMsg{View: view, Seq: seq, Rows: rows, Pagination: pg, Err: err}
	}
}

// Deactivate cancels any in-flight fetch. Its result, if delivered, is
// dropped.
func (m *Model) Deactivate() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.loading {
		m.fetchSeq++
		m.loading = false
	}
}

// requery re-runs the query: a fetch for server-paged sources, a local
// pass otherwise.
func (m *Model) requery() tea.Cmd {
	if m.source.ServerPaged {
		return m.Refresh()
	}
	m.apply()
	return nil
}

func (m Model) listOptions() api.ListOptions {
	opts := api.ListOptions{
		Page:   m.page,
		Limit:  m.settings.PageSize,
		Search: m.search,
	}
	if m.sort.Key != "" {
		opts.SortBy = m.sort.Key
		opts.SortOrder = m.sort.Order()
	}
	if len(m.selected) > 0 {
		opts.Filters = maps.Clone(m.selected)
	}
	return opts
}

func (m Model) query() listing.Query {
	return listing.Query{
		Search:        m.search,
		SearchColumns: model.Keys(m.visibleColumns()),
		Filters:       m.selected,
		SortKey:       m.sort.Key,
		SortDesc:      m.sort.Desc,
		Page:          m.page,
		PageSize:      m.settings.PageSize,
	}
}

// apply pages, filters and sorts m.all locally.
func (m *Model) apply() {
	res := listing.Apply(m.all, m.query())
	m.shown = res.Rows
	m.total = res.Total
	m.page = res.Page
	m.totalPages = res.TotalPages
	m.refreshTable()
}

func (m Model) visibleColumns() []model.Column {
	return m.settings.VisibleColumns(m.columns)
}

func (m Model) focusedColumn() (model.Column, bool) {
	cols := m.visibleColumns()
	if m.focus < 0 || m.focus >= len(cols) {
		return model.Column{}, false
	}
	return cols[m.focus], true
}

// refreshTable rebuilds the table columns and rows from the current state.
func (m *Model) refreshTable() {
	cols := m.visibleColumns()
	tcols := make([]table.Column, len(cols))
	for i, c := range cols {
		title := c.Title
		if c.Key == m.sort.Key {
			if m.sort.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == m.focus {
			title = "›" + title
		}
		tcols[i] = table.Column{Title: title, Width: max(c.Width, lipgloss.Width(title))}
	}

	trows := make([]table.Row, len(m.shown))
	for i, r := range m.shown {
		cells := make(table.Row, len(cols))
		for j, c := range cols {
			cells[j] = r.Cell(c.Key)
		}
		trows[i] = cells
	}

	// Rows must match the column count before columns change. Emptying
	// the rows clamps the cursor to -1, so it is restored afterwards.
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(tcols)
	m.table.SetRows(trows)
	m.table.SetCursor(min(max(cursor, 0), max(len(trows)-1, 0)))
}

// Selected returns the row under the cursor.
func (m Model) Selected() (model.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return nil, false
	}
	return m.shown[i], true
}

// SetCanCreate enables the create action.
func (m *Model) SetCanCreate(ok bool) { m.canCreate = ok }

// SetError shows err on the inline error line. nil clears it.
func (m *Model) SetError(err error) { m.err = err }

// Err returns the error currently shown.
func (m Model) Err() error { return m.err }

// Rows returns the rows on the current page.
func (m Model) Rows() []model.Row { return m.shown }

// Page returns the current page and page count.
func (m Model) Page() (page, total int) { return m.page, m.totalPages }

// Settings returns the current table settings.
func (m Model) Settings() prefs.ViewSettings { return m.settings }

// SetSize updates the table dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-4, 3))
	m.searchInput.Width = max(width-4, 10)
}

// View renders the table with its filter bar, footer and open dropdown.
func (m Model) View() string {
	var parts []string

	if bar := m.renderFilterBar(); bar != "" {
		parts = append(parts, bar)
	}
	if m.searchMode {
		parts = append(parts, lipgloss.NewStyle().Padding(0, 1).Render(m.searchInput.View()))
	} else if m.search != "" {
		parts = append(parts, theme.HelpStyle.Render("search: "+m.search))
	}

	body := m.table.View()
	if len(m.shown) == 0 && !m.loading {
		body = m.renderEmptyState()
	}
	if m.IsOverlayOpen() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderOverlay())
	}
	parts = append(parts, body, m.renderFooter())

	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render("✕ "+m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderOverlay() string {
	top, _ := m.overlays.Top()
	if top.ID == m.overlayID("confirm") {
		return theme.ModalStyle.Render(fmt.Sprintf("Delete #%d?\n\ny/enter confirm · n cancel", m.confirmID))
	}
	if p := m.activePicker(top.ID); p != nil {
		return p.View()
	}
	return ""
}

func (m *Model) activePicker(id string) *picker {
	switch id {
	case m.overlayID("filters"):
		return &m.filterPicker
	case m.overlayID("values"):
		return &m.valuePicker
	case m.overlayID("columns"):
		return &m.columnPicker
	}
	return nil
}

func (m Model) renderFilterBar() string {
	var chips []string
	for _, f := range m.settings.VisibleFilters(m.filters) {
		value := "all"
		if sel := m.selected[f.Column]; len(sel) > 0 {
			value = strings.Join(sel, ", ")
		}
		chips = append(chips, theme.TabStyle.Render(f.Title+": "+value))
	}
	if len(chips) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) renderFooter() string {
	status := fmt.Sprintf("page %d/%d · %d rows", m.page, m.totalPages, m.total)
	if m.sort.Key != "" {
		status += fmt.Sprintf(" · sort %s %s", m.sort.Key, m.sort.Order())
	}
	if m.loading {
		status += " · loading..."
	}
	return theme.HelpStyle.Render(status)
}

// renderEmptyState shows guidance text when no rows are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-4, 3)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.search != "" || len(m.selected) > 0 {
		return style.Render("No matching " + strings.ToLower(m.title) + ".\nTry adjusting your filters.")
	}
	return style.Render("No " + strings.ToLower(m.title) + " yet.\n\nPress r to refresh.")
}
