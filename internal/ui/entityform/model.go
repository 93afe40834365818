// Package entityform holds the create and edit forms for CRM records.
package entityform

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/theme"
)

// Kind selects which record a form edits.
type Kind int

const (
	KindBid Kind = iota
	KindObject
	KindEquipment
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindBid:
		return "Bid"
	case KindObject:
		return "Object"
	case KindEquipment:
		return "Equipment"
	case KindClient:
		return "Client"
	}
	return "Record"
}

// SubmittedMsg is dispatched when a form completes. ID is zero for a
// create. Input is a model.BidInput, ClientObjectInput, EquipmentInput or
// ClientInput matching Kind.
type SubmittedMsg struct {
	Kind  Kind
	ID    int64
	Input any
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// Options are the choices offered by select fields.
type Options struct {
	Clients  []model.Client
	Objects  []model.ClientObject
	BidTypes []model.BidType
	Users    []model.User
}

// Model is the Bubble Tea model for the record create/edit forms.
type Model struct {
	form   *huh.Form
	fb     *bindings
	kind   Kind
	editID int64
	opts   Options
	err    error
	width  int
	height int
}

// New creates an inactive form model.
func New(width, height int) Model {
	return Model{
		fb:     &bindings{},
		width:  width,
		height: height,
	}
}

// SetOptions sets the records offered by select fields.
func (m *Model) SetOptions(opts Options) {
	m.opts = opts
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// Kind returns the kind of the open form.
func (m Model) Kind() Kind { return m.kind }

// StartCreate opens an empty form for kind.
func (m *Model) StartCreate(kind Kind) tea.Cmd {
	m.kind = kind
	m.editID = 0
	m.err = nil
	m.fb.reset()
	m.form = m.build()
	return m.form.Init()
}

// StartEdit opens the edit form for row. ok is false for rows that have
// no edit form.
func (m *Model) StartEdit(row model.Row) (cmd tea.Cmd, ok bool) {
	switch r := row.(type) {
	case model.Bid:
		m.kind = KindBid
		m.fb.loadBid(r)
	case model.ClientObject:
		m.kind = KindObject
		m.fb.loadObject(r)
	case model.Equipment:
		m.kind = KindEquipment
		m.fb.loadEquipment(r)
	default:
		return nil, false
	}
	m.editID = row.RowID()
	m.err = nil
	m.form = m.build()
	return m.form.Init(), true
}

// Close discards the open form.
func (m *Model) Close() {
	m.form = nil
	m.err = nil
}

// SetError shows a submit failure and reopens the form with the entered
// values.
func (m *Model) SetError(err error) tea.Cmd {
	m.err = err
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the open form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		in, err := m.input()
		if err != nil {
			cmd := m.SetError(err)
			return m, cmd
		}
		out := SubmittedMsg{Kind: m.kind, ID: m.editID, Input: in}
		m.form = nil
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) input() (any, error) {
	switch m.kind {
	case KindBid:
		return m.fb.bidInput(m.opts.BidTypes)
	case KindObject:
		return m.fb.objectInput()
	case KindEquipment:
		return m.fb.equipmentInput()
	case KindClient:
		return m.fb.clientInput()
	}
	return nil, fmt.Errorf("unknown form kind %d", m.kind)
}

// View renders the open form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New " + m.kind.String()
	if m.editID != 0 {
		titleText = fmt.Sprintf("Edit %s #%d", m.kind, m.editID)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n"
	if m.err != nil {
		content += theme.ErrorStyle.Render("✕ "+m.err.Error()) + "\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) build() *huh.Form {
	var groups []*huh.Group
	switch m.kind {
	case KindBid:
		groups = m.bidGroups()
	case KindObject:
		groups = []*huh.Group{huh.NewGroup(m.objectFields()...)}
	case KindEquipment:
		groups = []*huh.Group{huh.NewGroup(m.equipmentFields()...)}
	case KindClient:
		groups = []*huh.Group{huh.NewGroup(m.clientFields()...)}
	}
	return huh.NewForm(groups...).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

// bidGroups asks for the client and bid type first so the second group
// can offer that client's objects and the type's default minutes.
func (m *Model) bidGroups() []*huh.Group {
	typeOpts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, bt := range m.opts.BidTypes {
		typeOpts = append(typeOpts, huh.NewOption(bt.Name, bt.ID))
	}

	first := huh.NewGroup(
		m.clientField(),
		huh.NewSelect[int64]().
			Title("Bid type").
			Options(typeOpts...).
			Value(&m.fb.bidTypeID),
	)

	second := huh.NewGroup(
		huh.NewSelect[int64]().
			Title("Object").
			OptionsFunc(objectOptions(m.fb, m.opts.Objects), &m.fb.clientID).
			Value(&m.fb.objectID),
		huh.NewInput().
			Title("Subject").
			Placeholder("What needs to be done?").
			Value(&m.fb.tema).
			Validate(validateRequired("Subject")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewInput().
			Title("Reaction time, min").
			PlaceholderFunc(defaultMinutes(m.fb, m.opts.BidTypes, func(bt model.BidType) *int {
				return bt.PlannedReactionTimeMinutes
			}), &m.fb.bidTypeID).
			Value(&m.fb.reaction).
			Validate(validateMinutes),
		huh.NewInput().
			Title("Duration, min").
			PlaceholderFunc(defaultMinutes(m.fb, m.opts.BidTypes, func(bt model.BidType) *int {
				return bt.PlannedDurationMinutes
			}), &m.fb.bidTypeID).
			Value(&m.fb.duration).
			Validate(validateMinutes),
	)
	return []*huh.Group{first, second}
}

// defaultMinutes shows the selected bid type's default as the placeholder.
func defaultMinutes(fb *bindings, types []model.BidType, pick func(model.BidType) *int) func() string {
	return func() string {
		bt, ok := findBidType(types, fb.bidTypeID)
		if !ok || pick(bt) == nil {
			return "optional"
		}
		return strconv.Itoa(*pick(bt)) + " (bid type default)"
	}
}

// objectOptions offers the objects of the selected client.
func objectOptions(fb *bindings, objects []model.ClientObject) func() []huh.Option[int64] {
	return func() []huh.Option[int64] {
		opts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
		for _, o := range objects {
			if o.ClientID == fb.clientID {
				opts = append(opts, huh.NewOption(o.Label(), o.ID))
			}
		}
		return opts
	}
}

func (m *Model) clientField() huh.Field {
	opts := make([]huh.Option[int64], 0, len(m.opts.Clients))
	for _, c := range m.opts.Clients {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}
	return huh.NewSelect[int64]().
		Title("Client").
		Description("Missing? Use :client new").
		Options(opts...).
		Value(&m.fb.clientID).
		Validate(validateSelected("Client"))
}

func (m *Model) objectFields() []huh.Field {
	users := []huh.Option[int64]{huh.NewOption("Unassigned", int64(0))}
	for _, u := range m.opts.Users {
		users = append(users, huh.NewOption(u.FullName, u.ID))
	}
	return []huh.Field{
		m.clientField(),
		huh.NewInput().
			Title("Brand/Model").
			Placeholder("e.g. Volvo FH16").
			Value(&m.fb.brandModel).
			Validate(validateRequired("Brand/Model")),
		huh.NewInput().
			Title("Plate").
			Placeholder("optional").
			Value(&m.fb.stateNumber),
		huh.NewSelect[int64]().
			Title("Responsible").
			Options(users...).
			Value(&m.fb.responsibleID),
	}
}

func (m *Model) equipmentFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Product code").
			Value(&m.fb.productCode),
		huh.NewInput().
			Title("Purchase price").
			Placeholder("0.00").
			Value(&m.fb.purchasePrice).
			Validate(validatePrice),
		huh.NewInput().
			Title("Selling price").
			Placeholder("0.00").
			Value(&m.fb.sellingPrice).
			Validate(validatePrice),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
	}
}

func (m *Model) clientFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Phone").
			Placeholder("optional").
			Value(&m.fb.phone),
		huh.NewInput().
			Title("Email").
			Placeholder("optional").
			Value(&m.fb.email).
			Validate(validateOptionalEmail),
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-6, 10)
}
