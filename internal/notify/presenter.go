package notify

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/crmterm/internal/model"
)

// DefaultDisplayDuration is how long a toast stays visible.
const DefaultDisplayDuration = 8 * time.Second

// Header is the title shown above every toast.
const Header = "New bid"

// Toast is a displayed notification.
type Toast struct {
	ID      string
	Bid     model.BidSummary
	ShownAt time.Time
}

// Lines renders the toast body: number, title, and client when known.
func (t Toast) Lines() []string {
	lines := []string{"№" + strconv.FormatInt(t.Bid.ID, 10), t.Bid.Title}
	if t.Bid.ClientName != "" {
		lines = append(lines, t.Bid.ClientName)
	}
	return lines
}

// String joins the body lines with " / ".
func (t Toast) String() string {
	return strings.Join(t.Lines(), " / ")
}

// Cue plays the audible alert.
type Cue interface {
	Play() error
}

// Sink mirrors toasts to another surface such as the desktop.
type Sink interface {
	Notify(t Toast) error
}

// PresenterOptions configures a Presenter.
type PresenterOptions struct {
	// Display defaults to DefaultDisplayDuration.
	Display time.Duration

	// Cue is optional; nil disables sound.
	Cue Cue

	Sinks  []Sink
	Logger zerolog.Logger
}

// Presenter holds at most one toast. A newer bid replaces the current toast
// and restarts the auto-dismiss timer from its own arrival.
type Presenter struct {
	display time.Duration
	cue     Cue
	sinks   []Sink
	log     zerolog.Logger

	mu        sync.Mutex
	current   *Toast
	seq       uint64
	timer     *time.Timer
	closed    bool
	listeners []func(*Toast)
}

// NewPresenter creates an empty Presenter.
func NewPresenter(opts PresenterOptions) *Presenter {
	if opts.Display <= 0 {
		opts.Display = DefaultDisplayDuration
	}
	return &Presenter{
		display: opts.Display,
		cue:     opts.Cue,
		sinks:   opts.Sinks,
		log:     opts.Logger.With().Str("component", "presenter").Logger(),
	}
}

// OnChange registers fn to run after every show and clear. fn receives
// the new toast, or nil when cleared, and must not block.
func (p *Presenter) OnChange(fn func(*Toast)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Show replaces the current toast with bid and plays the cue once.
func (p *Presenter) Show(bid model.BidSummary) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	if p.timer != nil {
		p.timer.Stop()
	}
	t := &Toast{ID: uuid.NewString(), Bid: bid, ShownAt: time.Now()}
	p.current = t
	p.timer = time.AfterFunc(p.display, func() { p.expire(seq) })
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}

	if p.cue != nil {
		go p.playCue()
	}
	if len(p.sinks) > 0 {
		go p.notifySinks(*t)
	}
}

// notifySinks runs off the Show caller, which is usually the channel's
// Run loop.
func (p *Presenter) notifySinks(t Toast) {
	for _, s := range p.sinks {
		if err := s.Notify(t); err != nil {
			p.log.Debug().Err(err).Msg("sink failed")
		}
	}
}

func (p *Presenter) playCue() {
	if err := p.cue.Play(); err != nil {
		p.log.Debug().Err(err).Msg("cue failed")
	}
}

// expire clears the toast if it is still the one the timer was armed for.
func (p *Presenter) expire(seq uint64) {
	p.mu.Lock()
	if seq != p.seq || p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.timer = nil
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Dismiss clears the toast and cancels its timer. No-op when empty.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.seq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = nil
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Current returns the displayed toast, if any.
func (p *Presenter) Current() (Toast, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Toast{}, false
	}
	return *p.current, true
}

// Close stops the pending timer. Later calls to Show are ignored.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.seq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
