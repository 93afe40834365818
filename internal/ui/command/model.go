package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Args []string
}

// Spec describes a palette command for suggestions.
type Spec struct {
	Name  string
	Usage string
}

// Commands lists what the palette suggests.
var Commands = []Spec{
	{"bids", "show bids"},
	{"contracts", "show contracts"},
	{"objects", "show client objects"},
	{"equipment", "show equipment"},
	{"bid", "bid <id>: open a bid"},
	{"new", "create a record in the current view"},
	{"client", "client new: create a client"},
	{"reconnect", "retry the live connection"},
	{"notifications", "list server notifications"},
	{"columns", "reset column layout"},
	{"settings", "API URL and token"},
	{"quit", "exit"},
}

// Parse splits input into a command name and arguments.
func Parse(input string) (CommandMsg, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return CommandMsg{}, false
	}
	return CommandMsg{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Suggest returns commands matching the first word of input: by prefix
// while it is being typed, exactly once arguments follow.
func Suggest(input string) []Spec {
	prefix := strings.ToLower(strings.TrimLeft(input, " "))
	exact := false
	if i := strings.IndexByte(prefix, ' '); i >= 0 {
		prefix, exact = prefix[:i], true
	}
	var out []Spec
	for _, c := range Commands {
		if c.Name == prefix || (!exact && strings.HasPrefix(c.Name, prefix)) {
			out = append(out, c)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			parsed, ok := Parse(m.input.Value())
			m.input.Reset()
			if ok {
				return m, func() tea.Msg { return parsed }
			}
			return m, nil
		case "tab":
			if s := Suggest(m.input.Value()); len(s) == 1 {
				m.input.SetValue(s[0].Name + " ")
				m.input.CursorEnd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View()}
	for _, s := range Suggest(m.input.Value()) {
		lines = append(lines, theme.HelpStyle.Render("  "+s.Name+"  "+s.Usage))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
