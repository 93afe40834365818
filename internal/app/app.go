package app

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/notify"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/theme"
	"github.com/nhle/crmterm/internal/ui"
	"github.com/nhle/crmterm/internal/ui/command"
	configview "github.com/nhle/crmterm/internal/ui/config"
	"github.com/nhle/crmterm/internal/ui/detail"
	"github.com/nhle/crmterm/internal/ui/entityform"
	helpview "github.com/nhle/crmterm/internal/ui/help"
	"github.com/nhle/crmterm/internal/ui/inbox"
	"github.com/nhle/crmterm/internal/ui/overlay"
	"github.com/nhle/crmterm/internal/ui/resourcelist"
	"github.com/nhle/crmterm/internal/ui/toast"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewForm
	ViewSettings
	ViewHelp
	ViewCommand
	ViewInbox
)

// Tab order of the resource lists.
const (
	tabBids = iota
	tabContracts
	tabObjects
	tabEquipment
	numTabs
)

// Deps are the long-lived collaborators of the root model.
type Deps struct {
	Config     *model.AppConfig
	ConfigPath string

	// Client talks to the configured backend. NewClient rebuilds it after
	// the connection settings change.
	Client    *api.Client
	NewClient func(cfg *model.AppConfig) *api.Client

	Registry  *prefs.Registry
	Tokens    configview.TokenStore
	Probe     configview.Prober
	Presenter *notify.Presenter

	// Link is optional; nil runs without live notifications.
	Link *Link

	Logger zerolog.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout
// and the live notification state.
type Model struct {
	deps   Deps
	client *api.Client
	log    zerolog.Logger

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	overlays     *overlay.Stack

	lists   [numTabs]resourcelist.Model
	started [numTabs]bool
	active  int

	detail      detail.Model
	form        entityform.Model
	formView    prefs.View
	settings    configview.Model
	helpView    helpview.Model
	commandView command.Model
	inboxView   inbox.Model
	toast       toast.Model

	toastEvents <-chan struct{}
	session     *api.Session
	state       model.ConnectionState
	unreadCount int
	status      string
	ready       bool
}

// New creates the root model. The Link, when set, should already be
// started so its first state changes reach the header.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		deps:        deps,
		client:      deps.Client,
		log:         deps.Logger.With().Str("component", "app").Logger(),
		keys:        k,
		overlays:    &overlay.Stack{},
		detail:      detail.New(k, 80, 24),
		form:        entityform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		inboxView:   inbox.New(deps.Client, k, 80, 24),
	}
	m.settings = configview.New(m.settingsDeps(), 80, 24)
	m.buildLists()
	m.started[m.active] = true

	if deps.Presenter != nil {
		m.toastEvents = notify.ToastEvents(deps.Presenter)
	}
	if deps.Link != nil {
		m.state = deps.Link.State()
	}
	return m
}

func (m Model) settingsDeps() configview.Deps {
	return configview.Deps{
		Config:     m.deps.Config,
		ConfigPath: m.deps.ConfigPath,
		Tokens:     m.deps.Tokens,
		Probe:      m.deps.Probe,
	}
}

// buildLists creates the four resource tables against the current client.
// Saved table settings are reloaded from the registry on Init.
func (m *Model) buildLists() {
	base := resourcelist.Config{
		Registry: m.deps.Registry,
		Overlays: m.overlays,
		Keys:     m.keys,
	}

	bids := base
	bids.View, bids.Title = prefs.ViewBids, "Bids"
	bids.Columns, bids.Filters = model.BidColumns, model.BidFilters
	bids.Source = resourcelist.BidSource(m.client)

	contracts := base
	contracts.View, contracts.Title = prefs.ViewContracts, "Contracts"
	contracts.Columns, contracts.Filters = model.ContractColumns, model.ContractFilters
	contracts.Source = resourcelist.ContractSource(m.client)

	objects := base
	objects.View, objects.Title = prefs.ViewObjects, "Objects"
	objects.Columns, objects.Filters = model.ObjectColumns, model.ObjectFilters
	objects.Source = resourcelist.ObjectSource(m.client)

	equipment := base
	equipment.View, equipment.Title = prefs.ViewEquipment, "Equipment"
	equipment.Columns = model.EquipmentColumns
	equipment.Source = resourcelist.EquipmentSource(m.client)

	w, h := m.contentSize()
	m.lists = [numTabs]resourcelist.Model{
		resourcelist.New(bids, w, h),
		resourcelist.New(contracts, w, h),
		resourcelist.New(objects, w, h),
		resourcelist.New(equipment, w, h),
	}
	m.started = [numTabs]bool{}
	m.applyPermissions()
}

// Init starts the first table, the session lookup and the notification
// listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.lists[m.active].Init(),
		m.loadSession(),
		m.fetchUnreadCount(),
	}
	if m.deps.Link != nil {
		cmds = append(cmds, notify.WaitForState(m.deps.Link.States()))
	}
	if m.toastEvents != nil {
		cmds = append(cmds, notify.WaitForToast(m.toastEvents))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case notify.StateMsg:
		m.state = msg.State
		return m, notify.WaitForState(m.deps.Link.States())

	case notify.ToastMsg:
		var cmds []tea.Cmd
		if t, ok := m.deps.Presenter.Current(); ok {
			m.toast.Set(&t)
			cmds = append(cmds, m.fetchUnreadCount())
			if m.currentView == ViewList && m.active == tabBids && !m.overlayOpen() {
				cmds = append(cmds, m.lists[tabBids].Refresh())
			}
		} else {
			m.toast.Set(nil)
		}
		m.resize()
		cmds = append(cmds, notify.WaitForToast(m.toastEvents))
		return m, tea.Batch(cmds...)

	case sessionLoadedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("loading session")
			m.status = sessionError(msg.err)
			return m, nil
		}
		m.session = msg.session
		m.status = ""
		m.applyPermissions()
		return m, nil

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case resourcelist.SettingsLoadedMsg:
		return m.updateList(msg.View, msg)

	case resourcelist.SettingsSavedMsg:
		return m.updateList(msg.View, msg)

	case resourcelist.RowsLoadedMsg:
		return m.updateList(msg.View, msg)

	case resourcelist.OpenDetailMsg:
		switch row := msg.Row.(type) {
		case model.Bid:
			next := m.openBid(row)
			return m, next
		case model.Contract:
			m.enter(ViewDetail)
			m.detail.Show(row)
			next := m.loadContract(row.ID)
			return m, next
		}
		// Objects and equipment have no detail page; enter edits them.
		next := m.openForm(msg.View, msg.Row)
		return m, next

	case resourcelist.OpenFormMsg:
		next := m.openForm(msg.View, msg.Row)
		return m, next

	case resourcelist.DeleteMsg:
		next := m.deleteRow(msg.View, msg.ID)
		return m, next

	case deletedMsg:
		i := tabIndex(msg.view)
		if msg.err != nil {
			m.lists[i].SetError(fmt.Errorf("delete #%d: %w", msg.id, msg.err))
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted #%d", msg.id)
		next := m.lists[i].Refresh()
		return m, next

	case detail.LoadedMsg:
		// Drop a late result for a record no longer on screen.
		if cur := m.detail.Row(); msg.Row != nil && cur != nil && cur.RowID() != msg.Row.RowID() {
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.EditMsg:
		next := m.openForm(prefs.ViewBids, msg.Row)
		return m, next

	case formOptionsMsg:
		if msg.err != nil {
			m.status = "Loading form options failed: " + msg.err.Error()
			return m, nil
		}
		m.form.SetOptions(msg.opts)
		m.formView = msg.view
		var cmd tea.Cmd
		if msg.row == nil {
			cmd = m.form.StartCreate(msg.kind)
		} else {
			var ok bool
			if cmd, ok = m.form.StartEdit(msg.row); !ok {
				return m, nil
			}
		}
		m.enter(ViewForm)
		return m, cmd

	case entityform.SubmittedMsg:
		m.status = "Saving..."
		next := m.submit(msg)
		return m, next

	case submittedMsg:
		if msg.err != nil {
			m.status = ""
			if m.currentView == ViewForm {
				next := m.form.SetError(msg.err)
				return m, next
			}
			return m, nil
		}
		m.form.Close()
		m.status = msg.summary
		m.currentView = m.previousView
		if m.currentView == ViewDetail && msg.kind == entityform.KindBid {
			m.detail.Show(m.detail.Row())
			next := tea.Batch(m.loadBid(msg.id), m.lists[tabBids].Refresh())
			return m, next
		}
		if i := tabIndex(m.formView); i >= 0 {
			next := m.lists[i].Refresh()
			return m, next
		}
		return m, nil

	case entityform.CancelMsg:
		m.form.Close()
		m.currentView = m.previousView
		return m, nil

	case configview.SavedMsg:
		cmd := m.reconfigure(msg.Config)
		return m, cmd

	case configview.DoneMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(msg)
		return m, cmd

	case inbox.LoadedMsg, inbox.MarkedMsg:
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case inbox.UnreadMsg:
		m.unreadCount = msg.Count
		return m, nil

	case inbox.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case inbox.OpenBidMsg:
		next := m.openBid(model.Bid{ID: msg.BidID})
		return m, next

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		next := m.quit()
		return m, next
	}

	// An open dropdown sees the key first; outside keys only dismiss it.
	if m.overlays.Len() > 0 {
		if !m.overlays.Route(msg) {
			return m, nil
		}
		return m.updateActiveView(msg)
	}

	// Views with text input keep every key except their way out.
	switch m.currentView {
	case ViewForm, ViewSettings:
		return m.updateActiveView(msg)
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)
	case ViewList:
		if m.lists[m.active].Searching() {
			return m.updateActiveView(msg)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewList {
			next := m.quit()
			return m, next
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		m.enter(ViewHelp)
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.enter(ViewCommand)
		next := m.commandView.Focus()
		return m, next

	case key.Matches(msg, m.keys.Reconnect):
		m.reconnect()
		return m, nil

	case key.Matches(msg, m.keys.DismissToast):
		if m.deps.Presenter != nil {
			m.deps.Presenter.Dismiss()
		}
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		if m.currentView != ViewSettings {
			next := m.openSettings()
			return m, next
		}

	case key.Matches(msg, m.keys.NextTab):
		if m.currentView == ViewList {
			next := m.switchTab((m.active + 1) % numTabs)
			return m, next
		}

	case key.Matches(msg, m.keys.PrevTab):
		if m.currentView == ViewList {
			next := m.switchTab((m.active + numTabs - 1) % numTabs)
			return m, next
		}

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.lists[m.active], cmd = m.lists[m.active].Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	}

	return m, cmd
}

// updateList routes a table message to the table that owns view, whether
// or not it is on screen.
func (m Model) updateList(view prefs.View, msg tea.Msg) (tea.Model, tea.Cmd) {
	i := tabIndex(view)
	if i < 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.lists[i], cmd = m.lists[i].Update(msg)
	return m, cmd
}

// enter switches to v, remembering where to return.
func (m *Model) enter(v ViewState) {
	if m.currentView != v {
		m.previousView = m.currentView
	}
	m.currentView = v
}

// switchTab leaves the current table, cancelling its fetch, and shows
// table i, loading it on first visit.
func (m *Model) switchTab(i int) tea.Cmd {
	if i == m.active {
		return nil
	}
	m.lists[m.active].Deactivate()
	m.active = i
	m.currentView = ViewList
	m.status = ""
	if !m.started[i] {
		m.started[i] = true
		return m.lists[i].Init()
	}
	return m.lists[i].Refresh()
}

func (m *Model) openSettings() tea.Cmd {
	m.enter(ViewSettings)
	return m.settings.Start()
}

func (m *Model) openBid(row model.Bid) tea.Cmd {
	m.enter(ViewDetail)
	m.detail.Show(row)
	return m.loadBid(row.ID)
}

func (m Model) reconnect() {
	if m.deps.Link != nil {
		m.deps.Link.Reconnect()
	}
}

// quit stops the live channel and exits.
func (m Model) quit() tea.Cmd {
	if m.deps.Link != nil {
		m.deps.Link.Stop()
	}
	if m.deps.Presenter != nil {
		m.deps.Presenter.Close()
	}
	return tea.Quit
}

// reconfigure switches to the saved connection settings: a fresh client,
// tables, session and notification channel.
func (m *Model) reconfigure(cfg *model.AppConfig) tea.Cmd {
	m.deps.Config = cfg
	if m.deps.NewClient != nil {
		m.client = m.deps.NewClient(cfg)
	}
	m.session = nil
	m.inboxView.SetService(m.client)
	m.buildLists()
	m.started[m.active] = true
	if m.deps.Link != nil {
		m.deps.Link.Start(cfg.WSURL(), m.client)
	}
	m.log.Info().Str("api", cfg.APIBase()).Msg("connection settings changed")

	return tea.Batch(
		m.lists[m.active].Init(),
		m.loadSession(),
		m.fetchUnreadCount(),
	)
}

// applyPermissions enables the create action of each table the session
// may create in.
func (m *Model) applyPermissions() {
	perms := api.Permissions(nil)
	if m.session != nil {
		perms = m.session.Permissions
	}
	m.lists[tabBids].SetCanCreate(perms.Has(model.PermBidCreate))
	m.lists[tabContracts].SetCanCreate(false)
	m.lists[tabObjects].SetCanCreate(perms.Has(model.PermObjectCreate))
	m.lists[tabEquipment].SetCanCreate(perms.Has(model.PermEquipmentCreate))
}

func (m *Model) resize() {
	w, h := m.contentSize()
	for i := range m.lists {
		m.lists[i].SetSize(w, h)
	}
	m.detail.SetSize(w, h)
	m.form.SetSize(w, h)
	m.settings.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.inboxView.SetSize(w, h)
}

func (m Model) contentSize() (int, int) {
	if !m.ready {
		return 80, 24
	}
	return m.layout.Width, m.layout.ContentHeight(m.toast.Height())
}

func (m Model) overlayOpen() bool { return m.overlays.Len() > 0 }

func tabIndex(v prefs.View) int {
	switch v {
	case prefs.ViewBids:
		return tabBids
	case prefs.ViewContracts:
		return tabContracts
	case prefs.ViewObjects:
		return tabObjects
	case prefs.ViewEquipment:
		return tabEquipment
	}
	return -1
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "crmterm"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("crmterm [%d new]", m.unreadCount)
	}
	user := ""
	if m.session != nil {
		user = m.session.User.FullName
	}
	header := m.layout.RenderHeader(headerTitle, user, theme.ConnectionIndicator(m.state))

	titles := make([]string, numTabs)
	for i, l := range m.lists {
		titles[i] = l.Title()
	}
	tabs := m.layout.RenderTabs(titles, m.active)

	return m.layout.RenderWithFrame(
		header,
		tabs,
		m.layout.RenderToast(m.toast.View()),
		m.renderContent(),
		m.layout.RenderStatusBar(m.keyHints()),
	)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.lists[m.active].View()
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		if !m.form.Active() {
			return theme.HelpStyle.Render(m.status)
		}
		return m.form.View()
	case ViewSettings:
		return m.settings.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewInbox:
		return m.inboxView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | j/k scroll"
	case ViewSettings:
		return "enter next | esc cancel"
	case ViewForm:
		return "enter submit | esc cancel"
	case ViewInbox:
		return "enter open | r refresh | esc back"
	}

	if m.status != "" {
		return m.status
	}
	if m.state == model.Polling {
		return "live updates unavailable, polling | R reconnect"
	}
	return "q quit | ? help | tab view | / search | f filter | v columns | n new"
}

// sessionError turns a session lookup failure into a status line.
func sessionError(err error) string {
	if api.IsAuthError(err) {
		return "Not signed in: set a token with S"
	}
	return "Session unavailable: " + err.Error()
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "bids":
		return m.switchTab(tabBids)
	case "contracts":
		return m.switchTab(tabContracts)
	case "objects":
		return m.switchTab(tabObjects)
	case "equipment":
		return m.switchTab(tabEquipment)
	case "bid":
		if len(c.Args) == 0 {
			m.status = "usage: bid <id>"
			return nil
		}
		id, err := strconv.ParseInt(c.Args[0], 10, 64)
		if err != nil || id <= 0 {
			m.status = fmt.Sprintf("invalid bid number %q", c.Args[0])
			return nil
		}
		return m.openBid(model.Bid{ID: id})
	case "new":
		l := m.lists[m.active]
		return m.openForm(l.Name(), nil)
	case "client":
		if len(c.Args) > 0 && c.Args[0] == "new" {
			return m.openClientForm()
		}
		m.status = "usage: client new"
		return nil
	case "reconnect":
		m.reconnect()
		return nil
	case "notifications", "inbox":
		m.enter(ViewInbox)
		return m.inboxView.Load()
	case "columns":
		return m.resetColumns()
	case "settings", "config":
		return m.openSettings()
	case "quit", "q":
		return m.quit()
	default:
		m.status = fmt.Sprintf("unknown command %q", c.Name)
		return nil
	}
}
