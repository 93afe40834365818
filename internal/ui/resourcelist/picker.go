package resourcelist

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/theme"
)

// pickerItem is one row of a dropdown.
type pickerItem struct {
	key     string
	label   string
	checked bool
	note    string
}

// picker is a checkbox dropdown rendered next to the table.
type picker struct {
	title  string
	items  []pickerItem
	cursor int
	hint   string
}

func (p *picker) move(delta int) {
	if len(p.items) == 0 {
		p.cursor = 0
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.items)-1)
}

func (p picker) current() (pickerItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return pickerItem{}, false
	}
	return p.items[p.cursor], true
}

// focus moves the cursor to the item with key.
func (p *picker) focus(key string) {
	for i, it := range p.items {
		if it.key == key {
			p.cursor = i
			return
		}
	}
}

func (p picker) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(p.title))
	b.WriteString("\n")

	if len(p.items) == 0 {
		b.WriteString(theme.HelpStyle.Render("no values"))
	}
	for i, it := range p.items {
		box := "[ ]"
		if it.checked {
			box = "[x]"
		}
		line := box + " " + it.label
		if it.note != "" {
			line += " " + theme.HelpStyle.Render(it.note)
		}
		if i == p.cursor {
			line = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if p.hint != "" {
		b.WriteString(theme.HelpStyle.Render(p.hint))
	}
	return theme.ModalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// pickerOwns reports whether a key is handled by an open dropdown. Any
// other key closes it.
func pickerOwns(extra ...string) func(tea.KeyMsg) bool {
	return func(msg tea.KeyMsg) bool {
		switch msg.String() {
		case "up", "down", "j", "k", "enter", " ":
			return true
		}
		for _, k := range extra {
			if msg.String() == k {
				return true
			}
		}
		return false
	}
}

func confirmOwns(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "y", "n", "enter":
		return true
	}
	return false
}
