package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/notify"
)

// ChannelFactory builds a notification channel for a push URL, polling
// fetcher when the push transport is unavailable.
type ChannelFactory func(url string, fetcher notify.LatestFetcher) *notify.Channel

// Link runs the notification channel in the background and restarts it
// when the connection settings change. State changes of every channel it
// runs are forwarded to one stream that outlives restarts.
type Link struct {
	newChannel ChannelFactory
	states     chan model.ConnectionState
	log        zerolog.Logger

	mu     sync.Mutex
	ch     *notify.Channel
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewLink creates a stopped Link.
func NewLink(newChannel ChannelFactory, log zerolog.Logger) *Link {
	return &Link{
		newChannel: newChannel,
		states:     make(chan model.ConnectionState, 16),
		log:        log.With().Str("component", "link").Logger(),
	}
}

// Start stops the running channel, if any, and starts a new one.
func (l *Link) Start(url string, fetcher notify.LatestFetcher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()

	ch := l.newChannel(url, fetcher)
	sub := ch.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ch.Run(gctx) })
	g.Go(func() error {
		l.forward(gctx, sub)
		return nil
	})

	l.ch, l.cancel, l.group = ch, cancel, g
	l.log.Info().Str("url", url).Msg("notification channel started")
}

func (l *Link) forward(ctx context.Context, sub <-chan model.ConnectionState) {
	for {
		select {
		case s := <-sub:
			l.publish(s)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) publish(s model.ConnectionState) {
	select {
	case l.states <- s:
	default:
		// The UI reads State on the next message anyway.
	}
}

// States returns the stream of connection state changes. It is never
// closed.
func (l *Link) States() <-chan model.ConnectionState { return l.states }

// State returns the running channel's state, Disconnected when stopped.
func (l *Link) State() model.ConnectionState {
	l.mu.Lock()
	ch := l.ch
	l.mu.Unlock()
	if ch == nil {
		return model.Disconnected
	}
	return ch.State()
}

// Reconnect asks the running channel to retry the push transport.
func (l *Link) Reconnect() {
	l.mu.Lock()
	ch := l.ch
	l.mu.Unlock()
	if ch != nil {
		ch.Reconnect()
	}
}

// Stop cancels the running channel and waits for it to exit.
func (l *Link) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Link) stopLocked() {
	if l.ch == nil {
		return
	}
	l.cancel()
	if err := l.group.Wait(); err != nil {
		l.log.Warn().Err(err).Msg("notification channel exited with error")
	}
	l.ch, l.cancel, l.group = nil, nil, nil
	l.publish(model.Disconnected)
}
