// Package toast renders the new-bid notification.
package toast

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/notify"
	"github.com/nhle/crmterm/internal/theme"
)

// MaxWidth caps the toast box width.
const MaxWidth = 48

// Model holds the toast currently on screen, if any.
type Model struct {
	current *notify.Toast
}

// Set replaces the shown toast. nil hides it.
func (m *Model) Set(t *notify.Toast) {
	m.current = t
}

// Current returns the shown toast.
func (m Model) Current() (*notify.Toast, bool) {
	return m.current, m.current != nil
}

// Height returns the number of terminal rows View takes.
func (m Model) Height() int {
	if m.current == nil {
		return 0
	}
	return lipgloss.Height(m.View())
}

// View renders the toast box, or "" when nothing is shown.
func (m Model) View() string {
	if m.current == nil {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Render("● " + notify.Header)
	lines := m.current.Lines()
	for i, l := range lines {
		lines[i] = truncate(l, MaxWidth-6)
	}
	hint := theme.HelpStyle.Render("x dismiss")

	body := title + "\n" + strings.Join(lines, "\n") + "\n" + hint
	return theme.ToastStyle.Render(body)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:max(width-1, 0)]) + "…"
}
