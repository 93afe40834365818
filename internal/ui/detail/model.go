package detail

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// LoadedMsg carries the freshly fetched record.
type LoadedMsg struct {
	Row model.Row
	Err error
}

// EditMsg asks the parent to open the edit form for the shown record.
type EditMsg struct {
	Row model.Row
}

// Model shows one bid or contract in a scrollable viewport.
type Model struct {
	row      model.Row
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, max(height-2, 1))
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Show displays row at once, marked as loading until the fetched copy
// arrives.
func (m *Model) Show(row model.Row) {
	m.row = row
	m.err = nil
	m.loading = true
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Row returns the record on screen.
func (m Model) Row() model.Row { return m.row }

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
		} else if msg.Row != nil {
			m.row = msg.Row
			m.err = nil
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Edit):
			if _, ok := m.row.(model.Bid); ok {
				row := m.row
				return m, func() tea.Msg { return EditMsg{Row: row} }
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.row == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing selected")
	}

	out := m.viewport.View()
	if m.loading {
		out = theme.HelpStyle.Render("refreshing...") + "\n" + out
	}
	if m.err != nil {
		out += "\n" + theme.ErrorStyle.Render("✕ "+m.err.Error())
	}
	return out
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 1)
	m.viewport.SetContent(m.renderContent())
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(theme.ColorGray).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(theme.ColorWhite)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
)

func field(label, value string) string {
	if value == "" {
		value = "—"
	}
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	switch r := m.row.(type) {
	case model.Bid:
		return m.renderBid(r)
	case model.Contract:
		return m.renderContract(r)
	case nil:
		return ""
	}

	// Other rows fall back to their cells.
	return fmt.Sprintf("#%d", m.row.RowID())
}

func (m Model) renderBid(b model.Bid) string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("№%d  %s", b.ID, b.Tema)))
	if b.Status != "" {
		sections = append(sections, theme.StatusStyle(b.Status).Render(b.Status))
	}
	sections = append(sections, "")

	object := ""
	if b.ClientObject != nil {
		object = b.ClientObject.Label()
	}
	sections = append(sections,
		field("Client", b.ClientName),
		field("Object", object),
		field("Creator", b.CreatorName),
		field("Responsible", b.ResponsibleName),
		field("Created", formatTime(&b.CreatedAt)),
		field("Assigned", formatTime(b.AssignedAt)),
	)

	sections = append(sections, "", titleStyle.Render("SLA"))
	sections = append(sections,
		field("Resolve by", formatTime(b.PlannedResolutionDate)),
		field("Reaction, min", formatInt(b.PlannedReactionTimeMinutes)),
		field("Duration, min", formatInt(b.PlannedDurationMinutes)),
		field("Remaining", b.RemainingTime),
	)
	if b.SpentTimeHours != nil {
		sections = append(sections, field("Spent, h", strconv.FormatFloat(*b.SpentTimeHours, 'f', 1, 64)))
	}
	if b.UpdNumber != "" {
		sections = append(sections, field("UPD", b.UpdNumber))
	}
	if b.ParentID != nil {
		sections = append(sections, field("Follow-up of", "№"+strconv.FormatInt(*b.ParentID, 10)))
	}

	if desc := strings.TrimSpace(b.Description); desc != "" {
		sections = append(sections, "", titleStyle.Render("Description"))
		sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(desc))
	}

	sections = append(sections, "", theme.HelpStyle.Render("e edit · esc back"))
	return strings.Join(sections, "\n")
}

func (m Model) renderContract(c model.Contract) string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Contract #%d", c.ID)), "")
	sections = append(sections,
		field("Bid", "№"+strconv.FormatInt(c.BidNumber, 10)),
		field("Client", c.ClientName),
		field("Responsible", c.ResponsibleName),
		field("Object", c.ClientObject),
		field("Equipment", c.EquipmentName),
		field("IMEI", c.IMEI),
		field("Quantity", strconv.Itoa(c.Quantity)),
		field("Ends", formatDate(c.ContractEndDate)),
	)

	if days, ok := c.RemainingDays(m.now()); ok {
		label := fmt.Sprintf("%d days", days)
		if days < 0 {
			label = fmt.Sprintf("expired %d days ago", -days)
		}
		sections = append(sections,
			labelStyle.Render("Days left")+theme.RemainingDaysStyle(days).Render(label))
	}

	sections = append(sections, "", theme.HelpStyle.Render("esc back"))
	return strings.Join(sections, "\n")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
