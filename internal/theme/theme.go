package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TabStyle and ActiveTabStyle render the resource tab bar.
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue).
			Underline(true).
			Padding(0, 1)
)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle renders inline error lines.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// SelectedItemStyle highlights the focused row of a list.
var SelectedItemStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true).
	PaddingLeft(1).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ListItemStyle renders an unfocused list row.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// DimmedStyle renders entries that no longer need attention.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ModalStyle frames dropdowns and confirmation dialogs.
var ModalStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBlue)

// ToastStyle frames the new-bid notification.
var ToastStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.ThickBorder(), false, false, false, true).
	BorderForeground(ColorGreen).
	Background(ColorSubtle).
	Foreground(ColorWhite)

// StatusStyle returns a color-coded style for a bid workflow status.
// Statuses are free-form server names, so matching is by keyword.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	s := strings.ToLower(status)

	switch {
	case strings.Contains(s, "закры"), strings.Contains(s, "closed"), strings.Contains(s, "done"):
		return base.Foreground(ColorGreen)
	case strings.Contains(s, "работ"), strings.Contains(s, "progress"):
		return base.Foreground(ColorYellow)
	case strings.Contains(s, "откры"), strings.Contains(s, "open"), strings.Contains(s, "new"):
		return base.Foreground(ColorBlue)
	case strings.Contains(s, "отмен"), strings.Contains(s, "cancel"):
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorMagenta)
	}
}

// RemainingDaysStyle colors a contract's remaining days.
func RemainingDaysStyle(days int) lipgloss.Style {
	switch {
	case days < 0:
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	case days <= 30:
		return lipgloss.NewStyle().Foreground(ColorOrange)
	default:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	}
}

// ConnectionIndicator renders the channel state for the header.
func ConnectionIndicator(s model.ConnectionState) string {
	switch s {
	case model.Connected:
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("● live")
	case model.Connecting:
		return lipgloss.NewStyle().Foreground(ColorYellow).Render("○ connecting")
	case model.Polling:
		return lipgloss.NewStyle().Foreground(ColorOrange).Render("⟳ polling")
	default:
		return lipgloss.NewStyle().Foreground(ColorRed).Render("✕ offline")
	}
}
