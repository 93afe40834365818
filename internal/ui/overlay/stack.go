// Package overlay tracks open dropdowns and modals that close on any
// interaction outside them.
package overlay

import tea "github.com/charmbracelet/bubbletea"

// Entry is an open overlay. Owns reports whether a key belongs to the
// overlay itself; any other key counts as an outside interaction.
type Entry struct {
	ID      string
	Owns    func(tea.KeyMsg) bool
	OnClose func()
}

// Stack holds overlays in opening order. Only the top entry receives input.
type Stack struct {
	entries []Entry
}

// Push opens an overlay. An existing entry with the same ID is replaced
// and moved to the top.
func (s *Stack) Push(e Entry) {
	s.remove(e.ID)
	s.entries = append(s.entries, e)
}

// Pop closes the top overlay, running its OnClose.
func (s *Stack) Pop() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	if top.OnClose != nil {
		top.OnClose()
	}
	return top, true
}

// Close removes the overlay with id without running OnClose. Used when
// the overlay closes itself.
func (s *Stack) Close(id string) {
	s.remove(id)
}

func (s *Stack) remove(id string) {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Top returns the topmost overlay.
func (s *Stack) Top() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// IsOpen reports whether id is on the stack.
func (s *Stack) IsOpen(id string) bool {
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of open overlays.
func (s *Stack) Len() int { return len(s.entries) }

// Route decides what a key does while overlays are open. It returns true
// when the key belongs to the top overlay and should be forwarded to it.
// esc and outside keys dismiss only the top overlay and are consumed.
// With no overlays open every key passes through.
func (s *Stack) Route(msg tea.KeyMsg) (forward bool) {
	top, ok := s.Top()
	if !ok {
		return true
	}
	if msg.Type != tea.KeyEsc && top.Owns != nil && top.Owns(msg) {
		return true
	}
	s.Pop()
	return false
}
