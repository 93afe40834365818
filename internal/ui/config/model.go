package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeForm           Mode = iota // Editing endpoint and token
	ModeValidating                 // Testing connection
	ModeValidateResult             // Show validation result
)

// probeTimeout bounds one connection test.
const probeTimeout = 15 * time.Second

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg signals the new connection settings were persisted. The app
// rebuilds its API client and notification channel from Config.
type SavedMsg struct {
	Config *model.AppConfig
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	User string
	Err  error
}

// Prober checks that apiBase answers and accepts token. It returns the
// authenticated user's display name.
type Prober func(ctx context.Context, apiBase, token string) (user string, err error)

// TokenStore persists the API token.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
}

// Deps are the collaborators the settings view needs.
type Deps struct {
	Config     *model.AppConfig
	ConfigPath string
	Tokens     TokenStore
	Probe      Prober

	// Save defaults to model.SaveConfig.
	Save func(path string, cfg *model.AppConfig) error
}

// Model is the Bubble Tea model for the connection settings view.
type Model struct {
	mode Mode
	deps Deps
	form *huh.Form
	fb   *fields

	validUser  string
	validError error
	saved      bool
	spinner    spinner.Model
	cancel     context.CancelFunc

	width, height int
}

// fields keeps huh's Value() pointers stable across model copies.
type fields struct {
	baseURL string
	wsURL   string
	token   string
}

// New creates the settings view.
func New(deps Deps, width, height int) Model {
	if deps.Save == nil {
		deps.Save = model.SaveConfig
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		deps:    deps,
		fb:      &fields{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start opens the form pre-filled from the current config. The token is
// never pre-filled.
func (m *Model) Start() tea.Cmd {
	m.mode = ModeForm
	m.validError = nil
	m.validUser = ""
	m.saved = false
	m.fb.baseURL = m.deps.Config.API.BaseURL
	m.fb.wsURL = m.deps.Config.API.WSURL
	m.fb.token = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode returns the current mode.
func (m Model) Mode() Mode { return m.mode }

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.cancel = nil
		m.validUser = msg.User
		m.validError = msg.Err
		m.mode = ModeValidateResult
		if msg.Err != nil {
			return m, nil
		}
		cmd := m.persist()
		return m, cmd

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)

	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			m.mode = ModeForm
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil

	case ModeValidateResult:
		switch msg.String() {
		case "r":
			if m.validError != nil {
				cmd := m.validate()
				return m, cmd
			}
		case "enter", "esc":
			if m.validError != nil {
				m.mode = ModeForm
				m.form = m.buildForm()
				return m, m.form.Init()
			}
			return m, func() tea.Msg { return DoneMsg{} }
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		cmd := m.validate()
		return m, cmd
	case huh.StateAborted:
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m, cmd
}

// candidate returns the config as entered, without touching the live one.
func (m Model) candidate() *model.AppConfig {
	cfg := *m.deps.Config
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	cfg.API.WSURL = strings.TrimSpace(m.fb.wsURL)
	return &cfg
}

// token returns the entered token, falling back to the stored one.
func (m Model) token() (string, error) {
	if t := strings.TrimSpace(m.fb.token); t != "" {
		return t, nil
	}
	if m.deps.Tokens == nil {
		return "", errors.New("no API token entered")
	}
	return m.deps.Tokens.Token()
}

// validate tests the entered endpoint and token.
func (m *Model) validate() tea.Cmd {
	m.mode = ModeValidating
	m.validError = nil

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	m.cancel = cancel

	cfg := m.candidate()
	token, tokenErr := m.token()
	probe := m.deps.Probe

	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			defer cancel()
			if tokenErr != nil {
				return ValidateResultMsg{Err: fmt.Errorf("reading token: %w", tokenErr)}
			}
			user, err := probe(ctx, cfg.APIBase(), token)
			return ValidateResultMsg{User: user, Err: err}
		},
	)
}

// persist saves the config and token after a successful test.
func (m *Model) persist() tea.Cmd {
	cfg := m.candidate()
	if err := cfg.Validate(); err != nil {
		m.validError = err
		return nil
	}
	if t := strings.TrimSpace(m.fb.token); t != "" && m.deps.Tokens != nil {
		if err := m.deps.Tokens.SetToken(t); err != nil {
			m.validError = fmt.Errorf("connection OK but saving token failed: %w", err)
			return nil
		}
	}
	if err := m.deps.Save(m.deps.ConfigPath, cfg); err != nil {
		m.validError = fmt.Errorf("connection OK but saving config failed: %w", err)
		return nil
	}
	m.deps.Config = cfg
	m.saved = true
	return func() tea.Msg { return SavedMsg{Config: cfg} }
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Empty uses "+model.DefaultSiteBase+"/api").
				Placeholder("https://crm.example.com/api").
				Value(&m.fb.baseURL).
				Validate(validateOptionalURL("http", "https")),
			huh.NewInput().
				Title("Push URL").
				Description("Empty derives it from the API URL").
				Placeholder("wss://crm.example.com").
				Value(&m.fb.wsURL).
				Validate(validateOptionalURL("ws", "wss")),
			huh.NewInput().
				Title("API token").
				Description("Stored in the system keyring. Empty keeps the current token.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.token),
		),
	).WithWidth(m.formWidth())
}

// View renders the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf(
			"%s Testing connection...\n\nPress esc to cancel.",
			m.spinner.View(),
		))

	case ModeValidateResult:
		return style.Render(m.viewValidateResult())
	}

	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Connection settings")
	return style.Render(title + "\n" + m.form.View())
}

func (m Model) viewValidateResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			hint.Render("r retry | enter/esc edit")
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	name := m.validUser
	if name == "" {
		name = "OK"
	}
	status := "Saved."
	if !m.saved {
		status = "Not saved."
	}
	return okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("Authenticated as: %s", name) + "\n" + status + "\n\n" +
		hint.Render("enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func validateOptionalURL(schemes ...string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		parsed, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("URL must include scheme and host")
		}
		for _, sc := range schemes {
			if parsed.Scheme == sc {
				return nil
			}
		}
		return fmt.Errorf("URL scheme must be one of %s", strings.Join(schemes, ", "))
	}
}
