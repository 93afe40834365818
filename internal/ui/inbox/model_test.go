package inbox

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/keys"
	"github.com/nhle/crmterm/internal/model"
)

type fakeService struct {
	items  []model.Notification
	marked []int64
}

func (f *fakeService) ListNotifications(_ context.Context, _ api.NotificationFilter) ([]model.Notification, error) {
	return f.items, nil
}

func (f *fakeService) MarkNotificationRead(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return nil
}

func bidID(n int64) *int64 { return &n }

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestLoadReportsUnread(t *testing.T) {
	svc := &fakeService{items: []model.Notification{
		{ID: 1, Message: "Bid 7 created", BidID: bidID(7)},
		{ID: 2, Message: "Old", Read: true},
	}}
	m := New(svc, keys.DefaultKeyMap(), 80, 20)

	m, cmd := m.Update(m.Load()())
	assert.Contains(t, collect(cmd), UnreadMsg{Count: 1})
	assert.Contains(t, m.View(), "Bid 7 created")
}

func TestEnterMarksReadAndOpensBid(t *testing.T) {
	svc := &fakeService{items: []model.Notification{
		{ID: 1, Message: "Bid 7 created", BidID: bidID(7)},
	}}
	m := New(svc, keys.DefaultKeyMap(), 80, 20)
	m, _ = m.Update(m.Load()())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs := collect(cmd)
	require.Len(t, msgs, 2)
	assert.Equal(t, []int64{1}, svc.marked)
	assert.Contains(t, msgs, OpenBidMsg{BidID: 7})

	for _, msg := range msgs {
		if mk, ok := msg.(MarkedMsg); ok {
			var next tea.Cmd
			m, next = m.Update(mk)
			assert.Contains(t, collect(next), UnreadMsg{Count: 0})
		}
	}
}

func TestEscCloses(t *testing.T) {
	m := New(&fakeService{}, keys.DefaultKeyMap(), 80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
	assert.Contains(t, m.View(), "No notifications.")
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{15 * 24 * time.Hour, "2w ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(now, now.Add(-tt.ago)))
	}
	assert.Empty(t, relativeTime(now, time.Time{}))
}
