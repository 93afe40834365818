// Package notify delivers real-time "new bid" events and presents them.
//
// A Channel keeps a push connection to the backend and falls back to
// polling the newest bid after repeated connection failures. A Presenter
// shows the latest event as a transient toast.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/crmterm/internal/model"
)

// Defaults for Options fields left zero.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultMaxAttempts    = 3
	DefaultPollInterval   = 10 * time.Second
	DefaultRecencyWindow  = 30 * time.Second

	dialTimeout  = 10 * time.Second
	fetchTimeout = 30 * time.Second
)

// Conn is an open push connection. Read blocks until the next frame.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// LatestFetcher returns the most recently created bid. ok is false when
// there are no bids.
type LatestFetcher interface {
	LatestBid(ctx context.Context) (bid model.BidSummary, ok bool, err error)
}

// Options configures a Channel.
type Options struct {
	// URL is the push transport address.
	URL string

	Dialer  Dialer
	Fetcher LatestFetcher

	// Handler receives every delivered bid on the Run goroutine.
	Handler func(model.BidSummary)

	Logger zerolog.Logger

	// Now is the clock used for polling recency. Defaults to time.Now.
	Now func() time.Time

	ReconnectDelay time.Duration
	MaxAttempts    int
	PollInterval   time.Duration
	RecencyWindow  time.Duration
}

// frame is the push envelope: {"type": "...", "data": {...}}.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Channel is the notification channel state machine. Run owns the
// connection, the failure counter and every timer; other methods only
// read the published state or post requests to Run.
type Channel struct {
	opts Options
	log  zerolog.Logger

	reconnectCh chan struct{}

	mu    sync.Mutex
	state model.ConnectionState
	subs  []chan model.ConnectionState

	// Owned by Run.
	failures      int
	lastDelivered int64
}

// New creates a Channel in the Disconnected state.
func New(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = WebSocketDialer{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Handler == nil {
		opts.Handler = func(model.BidSummary) {}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = DefaultRecencyWindow
	}
	return &Channel{
		opts:        opts,
		log:         opts.Logger.With().Str("component", "notify").Logger(),
		reconnectCh: make(chan struct{}, 1),
		state:       model.Disconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() model.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel receiving every state change. Slow readers
// miss intermediate states; State always reports the latest.
func (c *Channel) Subscribe() <-chan model.ConnectionState {
	ch := make(chan model.ConnectionState, 16)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// Reconnect resets the failure counter and restarts from Connecting,
// from any state.
func (c *Channel) Reconnect() {
	select {
	case c.reconnectCh <- struct{}{}:
	default:
		// A request is already pending.
	}
}

func (c *Channel) setState(s model.ConnectionState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = s
	subs := c.subs
	c.mu.Unlock()

	c.log.Info().
		Str("from", prev.String()).
		Str("to", s.String()).
		Int("failures", c.failures).
		Msg("channel state changed")

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Run drives the state machine until ctx is cancelled. It always returns
// nil after closing the connection and stopping timers.
func (c *Channel) Run(ctx context.Context) error {
	defer c.setState(model.Disconnected)

	next := model.Connecting
	for ctx.Err() == nil {
		switch next {
		case model.Connecting:
			next = c.connect(ctx)
		case model.Disconnected:
			next = c.backoff(ctx)
		case model.Polling:
			next = c.poll(ctx)
		default:
			next = model.Connecting
		}
	}
	return nil
}

// connect dials once and serves the connection until it drops. It returns
// the next state to enter.
func (c *Channel) connect(ctx context.Context) model.ConnectionState {
	c.drainReconnect()
	c.setState(model.Connecting)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, err := c.opts.Dialer.Dial(dialCtx, c.opts.URL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return model.Disconnected
		}
		c.failures++
		c.log.Warn().Err(err).Str("url", c.opts.URL).Int("failures", c.failures).Msg("dial failed")
		return model.Disconnected
	}

	c.failures = 0
	c.setState(model.Connected)
	return c.serve(ctx, conn)
}

func (c *Channel) serve(ctx context.Context, conn Conn) model.ConnectionState {
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	readCtx, stopReading := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			data, err := conn.Read(readCtx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-readCtx.Done():
				return
			}
		}
	}()

	shutdown := func() {
		stopReading()
		if err := conn.Close(); err != nil {
			c.log.Debug().Err(err).Msg("closing connection")
		}
		wg.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return model.Disconnected

		case <-c.reconnectCh:
			shutdown()
			c.failures = 0
			c.log.Info().Msg("manual reconnect")
			return model.Connecting

		case data := <-frames:
			c.handleFrame(data)

		case err := <-readErr:
			shutdown()
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return model.Disconnected
			}
			c.failures++
			c.log.Warn().Err(err).Int("failures", c.failures).Msg("connection lost")
			return model.Disconnected
		}
	}
}

// backoff waits out the reconnect delay, or degrades to polling once the
// failure threshold is reached.
func (c *Channel) backoff(ctx context.Context) model.ConnectionState {
	c.setState(model.Disconnected)
	if ctx.Err() != nil {
		return model.Disconnected
	}
	if c.failures >= c.opts.MaxAttempts {
		c.log.Warn().Int("failures", c.failures).Msg("push unavailable, falling back to polling")
		return model.Polling
	}

	timer := time.NewTimer(c.opts.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return model.Disconnected
	case <-c.reconnectCh:
		c.failures = 0
		return model.Connecting
	case <-timer.C:
		return model.Connecting
	}
}

// poll checks the newest bid every PollInterval. Only Reconnect leaves it.
func (c *Channel) poll(ctx context.Context) model.ConnectionState {
	c.setState(model.Polling)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return model.Disconnected
		case <-c.reconnectCh:
			c.failures = 0
			c.log.Info().Msg("manual reconnect")
			return model.Connecting
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

func (c *Channel) pollOnce(ctx context.Context) {
	if c.opts.Fetcher == nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	bid, ok, err := c.opts.Fetcher.LatestBid(fetchCtx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("poll failed")
		}
		return
	}
	if !ok || !bid.Valid() {
		return
	}

	if !c.recent(bid.CreatedAt) {
		c.log.Trace().Int64("bid_id", bid.ID).Time("created_at", bid.CreatedAt).Msg("latest bid not recent")
		return
	}
	c.deliver(bid)
}

// recent reports whether t lies within the recency window of now, in
// either direction.
func (c *Channel) recent(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	age := c.opts.Now().Sub(t)
	if age < 0 {
		age = -age
	}
	return age <= c.opts.RecencyWindow
}

func (c *Channel) handleFrame(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
		return
	}
	if model.EventKind(f.Type) != model.EventNewBid {
		c.log.Debug().Str("type", f.Type).Msg("ignoring frame")
		return
	}
	if len(f.Data) == 0 || string(f.Data) == "null" {
		c.log.Warn().Msg("dropping NewBid frame without data")
		return
	}

	var bid model.BidSummary
	if err := json.Unmarshal(f.Data, &bid); err != nil {
		c.log.Warn().Err(err).Msg("dropping undecodable NewBid payload")
		return
	}
	if !bid.Valid() {
		c.log.Warn().Int64("bid_id", bid.ID).Msg("dropping NewBid payload without id")
		return
	}
	c.deliver(bid)
}

// deliver hands bid to the handler unless it was the last one delivered.
func (c *Channel) deliver(bid model.BidSummary) {
	if bid.ID == c.lastDelivered {
		c.log.Debug().Int64("bid_id", bid.ID).Msg("skipping already delivered bid")
		return
	}
	c.lastDelivered = bid.ID
	c.log.Info().Int64("bid_id", bid.ID).Msg("new bid")
	c.opts.Handler(bid)
}

func (c *Channel) drainReconnect() {
	select {
	case <-c.reconnectCh:
	default:
	}
}
