package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height left for the active view, accounting
// for the header, tab bar, status bar and any toast rows.
func (l Layout) ContentHeight(toastHeight int) int {
	return max(l.Height-l.HeaderHeight-l.TabsHeight-l.StatusBarHeight-toastHeight, 0)
}

// RenderHeader renders the top bar with a title on the left and status
// segments on the right.
func (l Layout) RenderHeader(title string, status ...string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	right := ""
	for _, s := range status {
		if s == "" {
			continue
		}
		right += theme.HeaderStyle.Render(s)
	}

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, right)
}

// RenderTabs renders the resource tab bar with active highlighted.
func (l Layout) RenderTabs(titles []string, active int) string {
	tabs := make([]string, len(titles))
	for i, t := range titles {
		if i == active {
			tabs[i] = theme.ActiveTabStyle.Render(t)
		} else {
			tabs[i] = theme.TabStyle.Render(t)
		}
	}
	return lipgloss.NewStyle().
		MaxWidth(l.Width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// RenderToast right-aligns a rendered toast across the full width.
func (l Layout) RenderToast(toast string) string {
	if toast == "" {
		return ""
	}
	return lipgloss.PlaceHorizontal(l.Width, lipgloss.Right, toast)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame vertically joins the frame parts, skipping empty ones.
func (l Layout) RenderWithFrame(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
