// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultInterval is the period between cycles.
	DefaultInterval = 5000 * time.Millisecond

	// DefaultTriggerPath must appear in the page path for polling to run.
	DefaultTriggerPath = "/chat"

	// DefaultSelector locates the chat-messages fragment.
	DefaultSelector = ".chat-messages"

	// DefaultNearBottom is the distance from the bottom, in container units,
	// within which a reader is considered to be following the conversation.
	DefaultNearBottom = 50

	// DefaultManualEvery is the minimum spacing of manual refreshes.
	DefaultManualEvery = time.Second
)

// =============================================================================
// TYPES
// =============================================================================

// Options configures a Refresher. Fetcher and Container are required.
type Options struct {
	PageURL     string
	Selector    fragment.Selector // zero value means DefaultSelector
	Interval    time.Duration
	TriggerPath string
	NearBottom  int

	// FetchTimeout bounds each fetch. Zero means no timeout.
	FetchTimeout time.Duration

	// DropStale discards a cycle that finishes after a newer cycle was
	// already applied.
	DropStale bool

	// ManualEvery spaces out Trigger calls.
	ManualEvery time.Duration

	Clock      Clock
	Fetcher    Fetcher
	Container  Container
	Dispatcher Dispatcher

	// OnError receives failed and skipped cycles on the UI thread.
	// Nil drops them.
	OnError func(*CycleError)

	// OnApply runs on the UI thread after a fragment was swapped in.
	OnApply func(Applied)
}

// Cycle identifies one refresh attempt.
type Cycle struct {
	ID        string
	Seq       uint64
	Started   time.Time
	ScrollTop int // offset recorded before the fetch
	Manual    bool
}

// Applied describes a fragment that replaced the container content.
type Applied struct {
	Cycle    Cycle
	Fragment *fragment.Fragment
	Document *fragment.Document
	Pinned   bool // view was moved to the bottom
}

// Stats is a snapshot of refresher activity.
type Stats struct {
	Started     uint64
	Applied     uint64
	Skipped     uint64 // live or remote fragment missing
	Failed      uint64 // fetch or parse errors
	Discarded   uint64 // stopped or stale before applying
	InFlight    int64
	LastApplied time.Time
	LastFailed  time.Time
}

// Refresher polls a page and keeps a Container current.
type Refresher struct {
	pageURL    string
	selector   fragment.Selector
	interval   time.Duration
	nearBottom int
	active     bool
	opts       Options

	clock     Clock
	fetcher   Fetcher
	container Container
	dispatch  Dispatcher
	limiter   *rate.Limiter

	seq       atomic.Uint64
	newest    atomic.Uint64 // seq of the newest applied content
	started   atomic.Uint64
	applied   atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
	inFlight  atomic.Int64

	mu          sync.Mutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	lastApplied time.Time
	lastFailed  time.Time
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Polls reports whether a refresher for pageURL would be active, that is
// whether the URL path contains triggerPath (DefaultTriggerPath if empty).
func Polls(pageURL, triggerPath string) (bool, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("refresh: invalid page url: %w", err)
	}
	if triggerPath == "" {
		triggerPath = DefaultTriggerPath
	}
	return strings.Contains(page.Path, triggerPath), nil
}

// New validates opts and builds a Refresher. Whether it is active is decided
// here, from the page path, and never changes.
func New(opts Options) (*Refresher, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("refresh: fetcher is required")
	}
	if opts.Container == nil {
		return nil, errors.New("refresh: container is required")
	}

	page, err := url.Parse(opts.PageURL)
	if err != nil {
		return nil, fmt.Errorf("refresh: invalid page url: %w", err)
	}
	if page.Scheme == "" || page.Host == "" {
		return nil, fmt.Errorf("refresh: page url %q must be absolute", opts.PageURL)
	}

	if opts.Selector.IsZero() {
		opts.Selector = fragment.MustCompile(DefaultSelector)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TriggerPath == "" {
		opts.TriggerPath = DefaultTriggerPath
	}
	if opts.NearBottom <= 0 {
		opts.NearBottom = DefaultNearBottom
	}
	if opts.ManualEvery <= 0 {
		opts.ManualEvery = DefaultManualEvery
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = Serial()
	}

	return &Refresher{
		pageURL:    page.String(),
		selector:   opts.Selector,
		interval:   opts.Interval,
		nearBottom: opts.NearBottom,
		active:     strings.Contains(page.Path, opts.TriggerPath),
		opts:       opts,
		clock:      opts.Clock,
		fetcher:    opts.Fetcher,
		container:  opts.Container,
		dispatch:   opts.Dispatcher,
		limiter:    rate.NewLimiter(rate.Every(opts.ManualEvery), 1),
	}, nil
}

// Active reports whether the page is one the refresher polls.
func (r *Refresher) Active() bool { return r.active }

// PageURL returns the normalised page URL.
func (r *Refresher) PageURL() string { return r.pageURL }

// Interval returns the polling period.
func (r *Refresher) Interval() time.Duration { return r.interval }

// Selector returns the fragment selector.
func (r *Refresher) Selector() fragment.Selector { return r.selector }

// Running reports whether the ticker is registered.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start registers the ticker. On an inactive refresher it does nothing.
// Cancelling ctx has the same effect as Stop, minus waiting.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.active {
		log.Printf("REFRESH_INACTIVE | url=%s trigger=%s", r.pageURL, r.opts.TriggerPath)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.running = true

	go r.loop(r.ctx, r.clock.NewTicker(r.interval), r.done)

	log.Printf("REFRESH_START | url=%s interval=%s selector=%s", r.pageURL, r.interval, r.selector)
	return nil
}

// Stop unregisters the ticker and cancels in-flight fetches. Cycles that
// complete afterwards are discarded. Safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
	log.Printf("REFRESH_STOP | url=%s cycles=%d", r.pageURL, r.started.Load())
}

func (r *Refresher) loop(ctx context.Context, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			go func() {
				_ = r.cycle(ctx, false)
			}()
		}
	}
}

// Trigger starts one extra cycle now, without waiting for it.
func (r *Refresher) Trigger() error {
	if !r.active {
		return ErrInactive
	}

	r.mu.Lock()
	running, ctx := r.running, r.ctx
	r.mu.Unlock()

	if !running {
		return ErrNotRunning
	}
	if !r.limiter.AllowN(r.clock.Now(), 1) {
		return ErrRateLimited
	}

	go func() {
		_ = r.cycle(ctx, true)
	}()
	return nil
}

// Refresh runs one cycle and waits for it. It must not be called from the
// UI thread, since the cycle itself dispatches onto it.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.active {
		return ErrInactive
	}
	return r.cycle(ctx, true)
}

// Load applies an already fetched page, such as the response to posting a
// message, and scrolls to the bottom. Call it on the UI thread.
func (r *Refresher) Load(doc *fragment.Document) error {
	frag := doc.Find(r.selector)
	if frag == nil {
		return ErrRemoteFragmentMissing
	}
	if !r.container.Present() {
		return ErrLiveFragmentMissing
	}

	c := Cycle{ID: uuid.NewString(), Seq: r.seq.Add(1), Started: r.clock.Now(), Manual: true}
	r.container.ReplaceContent(frag)
	r.container.SetScrollTop(r.container.ScrollHeight())
	r.markApplied(c.Seq)

	if r.opts.OnApply != nil {
		r.opts.OnApply(Applied{Cycle: c, Fragment: frag, Document: doc, Pinned: true})
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (r *Refresher) Stats() Stats {
	r.mu.Lock()
	lastApplied, lastFailed := r.lastApplied, r.lastFailed
	r.mu.Unlock()

	return Stats{
		Started:     r.started.Load(),
		Applied:     r.applied.Load(),
		Skipped:     r.skipped.Load(),
		Failed:      r.failed.Load(),
		Discarded:   r.discarded.Load(),
		InFlight:    r.inFlight.Load(),
		LastApplied: lastApplied,
		LastFailed:  lastFailed,
	}
}
