package notify

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/crmterm/internal/model"
)

// StateMsg is a tea.Msg sent when the channel state changes.
type StateMsg struct {
	State model.ConnectionState
}

// ToastMsg is a tea.Msg sent when the presenter shows or clears a toast.
// The model reads the toast back with Presenter.Current.
type ToastMsg struct{}

// WaitForState returns a command that blocks until the next state change.
// Re-issue it after each StateMsg to keep listening.
func WaitForState(ch <-chan model.ConnectionState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return StateMsg{State: s}
	}
}

// ToastEvents adapts presenter changes into a coalescing signal channel.
func ToastEvents(p *Presenter) <-chan struct{} {
	ch := make(chan struct{}, 1)
	p.OnChange(func(*Toast) {
		select {
		case ch <- struct{}{}:
		default:
			// A redraw is already pending.
		}
	})
	return ch
}

// WaitForToast returns a command that blocks until the toast changes.
func WaitForToast(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return ToastMsg{}
	}
}
