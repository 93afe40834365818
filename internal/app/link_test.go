package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/notify"
)

type refusingDialer struct{}

func (refusingDialer) Dial(context.Context, string) (notify.Conn, error) {
	return nil, errors.New("connection refused")
}

type noBids struct{}

func (noBids) LatestBid(context.Context) (model.BidSummary, bool, error) {
	return model.BidSummary{}, false, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func refusingFactory(url string, fetcher notify.LatestFetcher) *notify.Channel {
	return notify.New(notify.Options{
		URL:            url,
		Dialer:         refusingDialer{},
		Fetcher:        fetcher,
		Logger:         zerolog.Nop(),
		ReconnectDelay: time.Millisecond,
		MaxAttempts:    1,
		PollInterval:   time.Hour,
	})
}

func TestLink_ForwardsStatesAcrossRestarts(t *testing.T) {
	link := NewLink(refusingFactory, zerolog.Nop())
	assert.Equal(t, model.Disconnected, link.State())

	link.Start("ws://crm.invalid/api", noBids{})
	require.Eventually(t, func() bool { return link.State() == model.Polling }, 2*time.Second, 5*time.Millisecond)

	link.Start("ws://other.invalid/api", noBids{})
	require.Eventually(t, func() bool { return link.State() == model.Polling }, 2*time.Second, 5*time.Millisecond)

	link.Stop()
	assert.Equal(t, model.Disconnected, link.State())

	var last model.ConnectionState
drain:
	for {
		select {
		case s := <-link.States():
			last = s
		default:
			break drain
		}
	}
	assert.Equal(t, model.Disconnected, last)
}

func TestLink_LogsOneComponentField(t *testing.T) {
	out := &syncBuffer{}
	link := NewLink(refusingFactory, zerolog.New(out))

	link.Start("ws://crm.invalid/api", noBids{})
	link.Stop()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component"`), line)
		assert.Contains(t, line, `"component":"link"`)
	}
}
