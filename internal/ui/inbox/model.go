// Package inbox lists the current user's server notifications.
package inbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/theme"
)

// Service is the part of the API client the inbox uses.
type Service interface {
	ListNotifications(ctx context.Context, filter api.NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// LoadedMsg is sent when notifications have been fetched.
type LoadedMsg struct {
	Notifications []model.Notification
	Err           error
}

// MarkedMsg is sent after a notification was marked read.
type MarkedMsg struct {
	ID  int64
	Err error
}

// CloseMsg asks the parent to leave the inbox.
type CloseMsg struct{}

// OpenBidMsg asks the parent to open the bid a notification refers to.
type OpenBidMsg struct {
	BidID int64
}

// UnreadMsg reports the unread count after any change.
type UnreadMsg struct {
	Count int
}

// Model is the notification inbox view.
type Model struct {
	list    list.Model
	service Service
	keys    *keys.KeyMap
	items   []model.Notification
	err     error
	width   int
	height  int
}

// New creates a new inbox model.
func New(s Service, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, max(height-2, 1))
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		service: s,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// SetService swaps the API client after the connection settings change.
func (m *Model) SetService(s Service) { m.service = s }

// Load returns a command that fetches notifications.
func (m Model) Load() tea.Cmd {
	s := m.service
	return func() tea.Msg {
		items, err := s.ListNotifications(context.Background(), api.NotificationsAll)
		return LoadedMsg{Notifications: items, Err: err}
	}
}

// Unread counts unread notifications.
func Unread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

// Update handles messages for the inbox.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.items = msg.Notifications
		cmd := m.setItems()
		count := Unread(m.items)
		return m, tea.Batch(cmd, func() tea.Msg { return UnreadMsg{Count: count} })

	case MarkedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		for i := range m.items {
			if m.items[i].ID == msg.ID {
				m.items[i].Read = true
			}
		}
		cmd := m.setItems()
		count := Unread(m.items)
		return m, tea.Batch(cmd, func() tea.Msg { return UnreadMsg{Count: count} })

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()

		case key.Matches(msg, m.keys.Select):
			it, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			n := it.Notification
			var cmds []tea.Cmd
			if !n.Read {
				cmds = append(cmds, m.markRead(n.ID))
			}
			if n.BidID != nil {
				id := *n.BidID
				cmds = append(cmds, func() tea.Msg { return OpenBidMsg{BidID: id} })
			}
			return m, tea.Batch(cmds...)
		}
	}

	// Delegate to list model for navigation keys
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) setItems() tea.Cmd {
	items := make([]list.Item, len(m.items))
	for i, n := range m.items {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

func (m Model) markRead(id int64) tea.Cmd {
	s := m.service
	return func() tea.Msg {
		return MarkedMsg{ID: id, Err: s.MarkNotificationRead(context.Background(), id)}
	}
}

// View renders the inbox.
func (m Model) View() string {
	var out string
	if len(m.items) == 0 {
		out = lipgloss.NewStyle().
			Width(m.width).
			Height(max(m.height-1, 1)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
	} else {
		out = m.list.View()
	}
	if m.err != nil {
		out += "\n" + theme.ErrorStyle.Render("✕ "+m.err.Error())
	}
	return out
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-2, 1))
}
