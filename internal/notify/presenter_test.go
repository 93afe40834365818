package notify

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
)

const display = 150 * time.Millisecond

func newTestPresenter(cue Cue) *Presenter {
	return NewPresenter(PresenterOptions{Display: display, Cue: cue, Logger: zerolog.Nop()})
}

func pump() model.BidSummary {
	return model.BidSummary{ID: 42, Title: "Pump repair", ClientName: "Acme"}
}

// TestPresenter_ShowRendersAndExpires tests the push scenario rendering and auto-dismiss.
func TestPresenter_ShowRendersAndExpires(t *testing.T) {
	cue := &fakeCue{}
	p := newTestPresenter(cue)
	defer p.Close()

	p.Show(pump())

	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "№42 / Pump repair / Acme", toast.String())
	assert.Equal(t, []string{"№42", "Pump repair", "Acme"}, toast.Lines())
	assert.NotEmpty(t, toast.ID)

	require.Eventually(t, func() bool { return cue.plays.Load() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { _, ok := p.Current(); return !ok }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), cue.plays.Load())
}

func TestToast_OmitsEmptyClient(t *testing.T) {
	toast := Toast{Bid: model.BidSummary{ID: 5, Title: "Check sensor"}}
	assert.Equal(t, []string{"№5", "Check sensor"}, toast.Lines())
	assert.Equal(t, "№5 / Check sensor", toast.String())
}

// TestPresenter_LatestWinsAndRestartsTimer tests that a newer bid replaces the toast.
func TestPresenter_LatestWinsAndRestartsTimer(t *testing.T) {
	cue := &fakeCue{}
	p := newTestPresenter(cue)
	defer p.Close()

	p.Show(pump())
	time.Sleep(display / 2)
	p.Show(model.BidSummary{ID: 43, Title: "Second"})

	// Past the first toast's deadline, before the second's.
	time.Sleep(display*3/4)
	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(43), toast.Bid.ID)

	require.Eventually(t, func() bool { _, ok := p.Current(); return !ok }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return cue.plays.Load() == 2 }, time.Second, time.Millisecond)
}

// TestPresenter_DismissCancelsLateTimer tests that a dismissed toast's timer cannot clear a newer one.
func TestPresenter_DismissCancelsLateTimer(t *testing.T) {
	p := newTestPresenter(nil)
	defer p.Close()

	p.Show(pump())
	time.Sleep(display / 3)
	p.Dismiss()
	_, ok := p.Current()
	assert.False(t, ok)

	time.Sleep(display / 3)
	p.Show(model.BidSummary{ID: 44, Title: "Third"})

	// The first toast's deadline passes here.
	time.Sleep(display / 2)
	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(44), toast.Bid.ID)
}

// TestPresenter_StaleExpiryIgnored tests the generation check directly.
func TestPresenter_StaleExpiryIgnored(t *testing.T) {
	p := NewPresenter(PresenterOptions{Display: time.Hour, Logger: zerolog.Nop()})
	defer p.Close()

	p.Show(pump())
	p.mu.Lock()
	stale := p.seq
	p.mu.Unlock()

	p.Show(model.BidSummary{ID: 50, Title: "Newer"})
	p.expire(stale)

	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(50), toast.Bid.ID)
}

// TestPresenter_DismissIdempotent tests that dismissing nothing notifies nobody.
func TestPresenter_DismissIdempotent(t *testing.T) {
	p := newTestPresenter(nil)
	defer p.Close()

	var mu sync.Mutex
	var changes []bool
	p.OnChange(func(t *Toast) {
		mu.Lock()
		changes = append(changes, t != nil)
		mu.Unlock()
	})

	p.Dismiss()
	p.Show(pump())
	p.Dismiss()
	p.Dismiss()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, changes)
}

func TestPresenter_CueErrorSwallowed(t *testing.T) {
	cue := &fakeCue{err: assert.AnError}
	p := newTestPresenter(cue)
	defer p.Close()

	assert.NotPanics(t, func() { p.Show(pump()) })
	require.Eventually(t, func() bool { return cue.plays.Load() == 1 }, time.Second, time.Millisecond)
	_, ok := p.Current()
	assert.True(t, ok)
}

type fakeSink struct {
	mu      sync.Mutex
	got     []string
	fail    bool
	release chan struct{}
}

func (s *fakeSink) Notify(t Toast) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, t.String())
	if s.fail {
		return assert.AnError
	}
	return nil
}

func (s *fakeSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.got)
}

func TestPresenter_Sinks(t *testing.T) {
	ok, failing := &fakeSink{}, &fakeSink{fail: true}
	p := NewPresenter(PresenterOptions{Display: display, Sinks: []Sink{failing, ok}, Logger: zerolog.Nop()})
	defer p.Close()

	p.Show(pump())
	require.Eventually(t, func() bool { return len(ok.received()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"№42 / Pump repair / Acme"}, ok.received())
	assert.Len(t, failing.received(), 1)
}

// TestPresenter_SlowSinkDoesNotBlockShow tests that a stalled desktop
// notifier cannot hold up the caller.
func TestPresenter_SlowSinkDoesNotBlockShow(t *testing.T) {
	slow := &fakeSink{release: make(chan struct{})}
	p := NewPresenter(PresenterOptions{Display: display, Sinks: []Sink{slow}, Logger: zerolog.Nop()})
	defer p.Close()

	shown := make(chan struct{})
	go func() {
		p.Show(pump())
		close(shown)
	}()

	select {
	case <-shown:
	case <-time.After(time.Second):
		t.Fatal("Show blocked on a sink")
	}
	_, ok := p.Current()
	assert.True(t, ok)
	assert.Empty(t, slow.received())

	close(slow.release)
	require.Eventually(t, func() bool { return len(slow.received()) == 1 }, time.Second, time.Millisecond)
}

// TestPresenter_CloseStopsTimers tests teardown.
func TestPresenter_CloseStopsTimers(t *testing.T) {
	p := newTestPresenter(nil)
	p.Show(pump())
	p.Close()

	p.Show(model.BidSummary{ID: 99, Title: "ignored"})
	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(42), toast.Bid.ID)

	// The stopped timer never clears the toast.
	time.Sleep(display + display/2)
	_, ok = p.Current()
	assert.True(t, ok)
}

// TestChannelToPresenter tests the push scenario end to end.
func TestChannelToPresenter(t *testing.T) {
	p := newTestPresenter(nil)
	defer p.Close()
	events := ToastEvents(p)

	dialer := &fakeDialer{}
	dialer.push(newFakeConn(`{"type":"NewBid","data":{"id":42,"tema":"Pump repair","clientName":"Acme"}}`))
	ch := New(Options{Dialer: dialer, Handler: p.Show, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = ch.Run(ctx) }()
	defer func() { cancel(); <-done }()

	select {
	case <-events:
	case <-time.After(waitFor):
		t.Fatal("toast never shown")
	}
	toast, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "№42 / Pump repair / Acme", toast.String())

	select {
	case <-events:
	case <-time.After(waitFor):
		t.Fatal("toast never cleared")
	}
	_, ok = p.Current()
	assert.False(t, ok)
}
