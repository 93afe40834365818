package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nhle/crmterm/internal/model"
)

var errRefused = errors.New("connection refused")

// fakeConn delivers queued frames, then fails reads once dropped.
type fakeConn struct {
	frames  chan []byte
	dropped chan struct{}
	closed  atomic.Bool
	once    sync.Once
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{
		frames:  make(chan []byte, 64),
		dropped: make(chan struct{}),
	}
	for _, f := range frames {
		c.frames <- []byte(f)
	}
	return c
}

func (c *fakeConn) send(f string) { c.frames <- []byte(f) }

func (c *fakeConn) drop() { c.once.Do(func() { close(c.dropped) }) }

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.dropped:
		return nil, errors.New("connection reset")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	c.drop()
	return nil
}

// fakeDialer answers each Dial with the next scripted result, repeating
// the last one when the script runs out.
type fakeDialer struct {
	mu     sync.Mutex
	script []any
	dials  atomic.Int32
}

func (d *fakeDialer) push(results ...any) {
	d.mu.Lock()
	d.script = append(d.script, results...)
	d.mu.Unlock()
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.dials.Add(1)
	d.mu.Lock()
	var r any = errRefused
	if len(d.script) > 0 {
		r = d.script[0]
		if len(d.script) > 1 {
			d.script = d.script[1:]
		}
	}
	d.mu.Unlock()

	switch v := r.(type) {
	case *fakeConn:
		return v, nil
	case error:
		return nil, v
	}
	return nil, errRefused
}

// fakeFetcher returns the configured latest bid.
type fakeFetcher struct {
	mu    sync.Mutex
	bid   model.BidSummary
	ok    bool
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) set(bid model.BidSummary, ok bool, err error) {
	f.mu.Lock()
	f.bid, f.ok, f.err = bid, ok, err
	f.mu.Unlock()
}

func (f *fakeFetcher) LatestBid(ctx context.Context) (model.BidSummary, bool, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bid, f.ok, f.err
}

// recorder collects delivered bids.
type recorder struct {
	mu   sync.Mutex
	bids []model.BidSummary
}

func (r *recorder) handle(b model.BidSummary) {
	r.mu.Lock()
	r.bids = append(r.bids, b)
	r.mu.Unlock()
}

func (r *recorder) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.bids))
	for i, b := range r.bids {
		out[i] = b.ID
	}
	return out
}

// fakeCue counts plays.
type fakeCue struct {
	plays atomic.Int32
	err   error
}

func (c *fakeCue) Play() error {
	c.plays.Add(1)
	return c.err
}

// fixedClock is a settable clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
