// Package help renders the key, command and status reference.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/theme"
	"github.com/nhle/crmterm/internal/ui/command"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginTop(1)
	nameStyle    = lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(16)
)

// Model shows everything the user can do from the main screen.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	m := Model{keys: k, help: h}
	m.SetSize(width, height)
	return m
}

// View renders keys, palette commands and the live status legend.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	b.WriteString("\n" + sectionStyle.Render("Commands (:)") + "\n")
	for _, c := range command.Commands {
		b.WriteString(nameStyle.Render(c.Name) + theme.HelpStyle.Render(c.Usage) + "\n")
	}

	b.WriteString(sectionStyle.Render("Live Status") + "\n")
	for _, row := range []struct {
		state model.ConnectionState
		text  string
	}{
		{model.Connected, "new bids arrive instantly"},
		{model.Connecting, "opening the live connection"},
		{model.Disconnected, "retrying shortly"},
		{model.Polling, "checking every few seconds, R to retry live"},
	} {
		b.WriteString(theme.ConnectionIndicator(row.state) + "  " + row.text + "\n")
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 20)).
		Height(max(m.height-4, 5)).
		Render(strings.TrimRight(b.String(), "\n"))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-4, 20)
}
