// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// =============================================================================
// FAKE CLOCK
// =============================================================================

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{period: d, ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Tick delivers one tick to every live ticker and waits until it is taken.
func (c *fakeClock) Tick() {
	c.mu.Lock()
	c.now = c.now.Add(time.Millisecond)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		select {
		case t.ch <- now:
		case <-t.stopped:
		}
	}
}

func (c *fakeClock) Tickers() []*fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTicker(nil), c.tickers...)
}

type fakeTicker struct {
	period  time.Duration
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

func (t *fakeTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// =============================================================================
// FAKE FETCHER
// =============================================================================

type response struct {
	body string
	err  error
	gate chan struct{} // when set, the fetch waits for it to close
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses []response
	calls     int
	urls      []string
	entered   chan int
}

func newFakeFetcher(responses ...response) *fakeFetcher {
	return &fakeFetcher{responses: responses, entered: make(chan int, 16)}
}

// Fetch returns responses in order, repeating the last one.
func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.urls = append(f.urls, url)
	var resp response
	switch {
	case len(f.responses) == 0:
		resp = response{err: fmt.Errorf("no response configured")}
	case idx < len(f.responses):
		resp = f.responses[idx]
	default:
		resp = f.responses[len(f.responses)-1]
	}
	f.mu.Unlock()

	f.entered <- idx

	if resp.gate != nil {
		select {
		case <-resp.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return []byte(resp.body), nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// =============================================================================
// FAKE CONTAINER
// =============================================================================

// fakeContainer models a scrollable element. When rowHeight is set the
// content height follows the number of entries, otherwise it stays at height.
type fakeContainer struct {
	mu        sync.Mutex
	present   bool
	bodies    []string
	scrollTop int
	height    int
	client    int
	rowHeight int
	replaced  int
}

func newFakeContainer(bodies ...string) *fakeContainer {
	return &fakeContainer{present: true, bodies: bodies, height: 1000, client: 300}
}

func (c *fakeContainer) Present() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}

func (c *fakeContainer) ScrollTop() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollTop
}

func (c *fakeContainer) SetScrollTop(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrollTop = offset
}

func (c *fakeContainer) ScrollHeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rowHeight > 0 {
		return c.rowHeight * len(c.bodies)
	}
	return c.height
}

func (c *fakeContainer) ClientHeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *fakeContainer) ReplaceContent(f *fragment.Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = c.bodies[:0:0]
	for _, e := range f.Entries(fragment.DefaultEntrySelectors()) {
		c.bodies = append(c.bodies, e.Body)
	}
	c.replaced++
}

func (c *fakeContainer) Bodies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bodies...)
}

func (c *fakeContainer) Replaced() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaced
}

// =============================================================================
// PAGES
// =============================================================================

// chatPage renders a full page whose chat-messages region holds one entry
// per body.
func chatPage(bodies ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><nav>menu</nav><div class="chat-messages">`)
	for _, body := range bodies {
		fmt.Fprintf(&b, `<div class="message"><div class="message-content">%s</div></div>`, body)
	}
	b.WriteString(`</div><form action="/chat/send" method="post"></form></body></html>`)
	return b.String()
}
