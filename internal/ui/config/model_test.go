package config

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
)

type memTokens struct {
	token string
	err   error
}

func (t *memTokens) Token() (string, error) {
	if t.token == "" {
		return "", errors.New("no token")
	}
	return t.token, nil
}

func (t *memTokens) SetToken(s string) error {
	if t.err != nil {
		return t.err
	}
	t.token = s
	return nil
}

// runValidation executes the validation command and returns its result.
func runValidation(t *testing.T, cmd tea.Cmd) ValidateResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if res, ok := c().(ValidateResultMsg); ok {
			return res
		}
	}
	t.Fatal("no ValidateResultMsg in batch")
	return ValidateResultMsg{}
}

func TestSuccessfulTestSavesConfigAndToken(t *testing.T) {
	tokens := &memTokens{}
	var probed struct{ base, token string }
	var savedPath string
	var savedCfg *model.AppConfig

	m := New(Deps{
		Config:     model.DefaultAppConfig(),
		ConfigPath: "/tmp/crmterm.yaml",
		Tokens:     tokens,
		Probe: func(_ context.Context, base, token string) (string, error) {
			probed.base, probed.token = base, token
			return "Jane Operator", nil
		},
		Save: func(path string, cfg *model.AppConfig) error {
			savedPath, savedCfg = path, cfg
			return nil
		},
	}, 80, 24)
	m.Start()
	m.fb.baseURL = "https://crm.example.com/api/"
	m.fb.token = "secret"

	res := runValidation(t, m.validate())
	assert.Equal(t, ModeValidating, m.Mode())
	assert.Equal(t, "https://crm.example.com/api", probed.base)
	assert.Equal(t, "secret", probed.token)

	m, cmd := m.Update(res)
	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)

	assert.Equal(t, ModeValidateResult, m.Mode())
	assert.Equal(t, "https://crm.example.com/api", saved.Config.API.BaseURL)
	assert.Equal(t, "/tmp/crmterm.yaml", savedPath)
	assert.Same(t, saved.Config, savedCfg)
	assert.Equal(t, "secret", tokens.token)
	assert.Contains(t, m.View(), "Jane Operator")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{}, cmd())
}

func TestFailedTestSavesNothing(t *testing.T) {
	tokens := &memTokens{token: "old"}
	saved := false
	m := New(Deps{
		Config: model.DefaultAppConfig(),
		Tokens: tokens,
		Probe: func(_ context.Context, _, token string) (string, error) {
			assert.Equal(t, "old", token, "empty field keeps the stored token")
			return "", errors.New("401 unauthorized")
		},
		Save: func(string, *model.AppConfig) error {
			saved = true
			return nil
		},
	}, 80, 24)
	m.Start()

	m, cmd := m.Update(runValidation(t, m.validate()))
	assert.Nil(t, cmd)
	assert.False(t, saved)
	assert.Equal(t, "old", tokens.token)
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "401 unauthorized")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeForm, m.Mode())
}

func TestTokenSaveFailureReported(t *testing.T) {
	m := New(Deps{
		Config: model.DefaultAppConfig(),
		Tokens: &memTokens{err: errors.New("keyring locked")},
		Probe:  func(context.Context, string, string) (string, error) { return "u", nil },
		Save:   func(string, *model.AppConfig) error { return nil },
	}, 80, 24)
	m.Start()
	m.fb.token = "new"

	m, cmd := m.Update(runValidation(t, m.validate()))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "keyring locked")
}

func TestValidateOptionalURL(t *testing.T) {
	v := validateOptionalURL("http", "https")
	assert.NoError(t, v(""))
	assert.NoError(t, v("https://crm.example.com/api"))
	assert.Error(t, v("ftp://crm.example.com"))
	assert.Error(t, v("crm.example.com"))
}
