package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/crmterm/internal/model"
)

func TestConnectionIndicator(t *testing.T) {
	tests := map[model.ConnectionState]string{
		model.Connected:    "● live",
		model.Connecting:   "○ connecting",
		model.Polling:      "⟳ polling",
		model.Disconnected: "✕ offline",
	}
	for state, want := range tests {
		assert.Contains(t, ConnectionIndicator(state), want, state.String())
	}
}

func TestStatusStyle(t *testing.T) {
	green := lipgloss.NewStyle().Foreground(ColorGreen).GetForeground()
	assert.Equal(t, green, StatusStyle("Закрыта").GetForeground())
	assert.Equal(t, green, StatusStyle("Closed").GetForeground())
	assert.NotEqual(t, green, StatusStyle("Open").GetForeground())
}
