package app

import (
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/devserver"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/ui/command"
	"github.com/nhle/crmterm/internal/ui/detail"
	"github.com/nhle/crmterm/internal/ui/entityform"
	"github.com/nhle/crmterm/tests/testutil"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	srv := httptest.NewServer(devserver.New(devserver.Options{Logger: zerolog.Nop()}).Handler())
	t.Cleanup(srv.Close)

	registry, _ := testutil.NewTestRegistry(t, 20)
	return New(Deps{
		Config:   model.DefaultAppConfig(),
		Client:   api.NewClient(srv.URL+"/api", api.StaticToken("t"), api.WithTimeout(2*time.Second)),
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModel_SessionShowsUserAndEnablesCreate(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, m.loadSession()())
	require.NotNil(t, m.session)
	assert.True(t, m.permissions().Has(model.PermBidCreate))
	assert.Contains(t, m.View(), "Demo Dispatcher")
}

func TestModel_UnreadCountInHeader(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, unreadCountMsg{count: 3})
	assert.Contains(t, m.View(), "crmterm [3 new]")
}

func TestModel_BidCommand(t *testing.T) {
	m := newTestModel(t)

	cmd := m.executeCommand(command.CommandMsg{Name: "bid", Args: []string{"abc"}})
	assert.Nil(t, cmd)
	assert.Equal(t, `invalid bid number "abc"`, m.status)

	cmd = m.executeCommand(command.CommandMsg{Name: "bid", Args: []string{"2"}})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewDetail, m.currentView)

	loaded, ok := cmd().(detail.LoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	bid, ok := loaded.Row.(model.Bid)
	require.True(t, ok)
	assert.Equal(t, int64(2), bid.ID)
	assert.Equal(t, "Fuel sensor calibration", bid.Tema)
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t)

	assert.Nil(t, m.executeCommand(command.CommandMsg{Name: "frobnicate"}))
	assert.Equal(t, `unknown command "frobnicate"`, m.status)
}

func TestModel_LateDetailResultDropped(t *testing.T) {
	m := newTestModel(t)
	m.openBid(model.Bid{ID: 2, Tema: "shown"})

	m = update(t, m, detail.LoadedMsg{Row: model.Bid{ID: 1, Tema: "stale"}})
	assert.Equal(t, int64(2), m.detail.Row().RowID())
}

func TestModel_SubmitCreatesBid(t *testing.T) {
	m := newTestModel(t)

	msg := m.submit(entityform.SubmittedMsg{
		Kind:  entityform.KindBid,
		Input: model.BidInput{Tema: "Install camera", ClientID: 1},
	})()
	res, ok := msg.(submittedMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.NotZero(t, res.id)
	assert.Contains(t, res.summary, "created")
}

func TestModel_CreateNeedsPermission(t *testing.T) {
	m := newTestModel(t)

	assert.Nil(t, m.openForm(prefs.ViewBids, nil))
	assert.NotEmpty(t, m.status)

	assert.Nil(t, m.openForm(prefs.ViewContracts, nil))
	assert.Equal(t, errReadOnly.Error(), m.status)
}

func TestModel_DeleteNeedsPermission(t *testing.T) {
	m := newTestModel(t)

	res, ok := m.deleteRow(prefs.ViewBids, 1)().(deletedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, res.err, errDeleteForbidden)
}

func TestModel_FormOptionsLoadInParallel(t *testing.T) {
	m := newTestModel(t)

	res, ok := m.loadFormOptions(prefs.ViewBids, entityform.KindBid, nil)().(formOptionsMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Len(t, res.opts.Clients, 2)
	assert.Len(t, res.opts.Objects, 3)
	assert.Len(t, res.opts.BidTypes, 2)
	assert.Len(t, res.opts.Users, 3)
}
