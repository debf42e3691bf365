// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

const chatURL = "http://localhost:5000/professor/chat?student_id=7"

type harness struct {
	r       *Refresher
	clock   *fakeClock
	fetcher *fakeFetcher
	view    *fakeContainer

	mu      sync.Mutex
	errs    []*CycleError
	applied chan Applied
}

func newHarness(t *testing.T, pageURL string, view *fakeContainer, fetcher *fakeFetcher, tweak ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		clock:   newFakeClock(),
		fetcher: fetcher,
		view:    view,
		applied: make(chan Applied, 16),
	}
	opts := Options{
		PageURL:   pageURL,
		Clock:     h.clock,
		Fetcher:   fetcher,
		Container: view,
		OnError: func(err *CycleError) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.errs = append(h.errs, err)
		},
		OnApply: func(a Applied) { h.applied <- a },
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	r, err := New(opts)
	require.NoError(t, err)
	h.r = r
	t.Cleanup(r.Stop)
	return h
}

func (h *harness) Errors() []*CycleError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*CycleError(nil), h.errs...)
}

func (h *harness) waitApplied(t *testing.T) Applied {
	t.Helper()
	select {
	case a := <-h.applied:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an applied cycle")
		return Applied{}
	}
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNew_Validation(t *testing.T) {
	view := newFakeContainer()
	fetcher := newFakeFetcher()

	_, err := New(Options{PageURL: chatURL, Container: view})
	assert.Error(t, err, "fetcher required")

	_, err = New(Options{PageURL: chatURL, Fetcher: fetcher})
	assert.Error(t, err, "container required")

	_, err = New(Options{PageURL: "/professor/chat", Fetcher: fetcher, Container: view})
	assert.Error(t, err, "relative url rejected")

	r, err := New(Options{PageURL: chatURL, Fetcher: fetcher, Container: view})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, r.Interval())
	assert.Equal(t, DefaultSelector, r.Selector().String())
	assert.True(t, r.Active())
	assert.Equal(t, chatURL, r.PageURL())
}

func TestNew_ActivationFromPath(t *testing.T) {
	tests := []struct {
		url    string
		active bool
	}{
		{"http://localhost:5000/student/chat", true},
		{"http://localhost:5000/professor/chat?student_id=3", true},
		{"http://localhost:5000/chat/room", true},
		{"http://localhost:5000/student/dashboard", false},
		{"http://localhost:5000/videos?next=/chat", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r, err := New(Options{PageURL: tt.url, Fetcher: newFakeFetcher(), Container: newFakeContainer()})
			require.NoError(t, err)
			assert.Equal(t, tt.active, r.Active())
		})
	}
}

// =============================================================================
// CYCLE TESTS
// =============================================================================

func TestRefresh_ReplacesWholeContent(t *testing.T) {
	view := newFakeContainer("A", "B")
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A", "B", "C")}))

	require.NoError(t, h.r.Refresh(context.Background()))

	assert.Equal(t, []string{"A", "B", "C"}, view.Bodies())
	assert.Equal(t, []string{chatURL}, h.fetcher.urls)
	assert.Empty(t, h.Errors())

	a := h.waitApplied(t)
	assert.Equal(t, uint64(1), a.Cycle.Seq)
	assert.NotEmpty(t, a.Cycle.ID)
	assert.Len(t, a.Fragment.Entries(fragment.DefaultEntrySelectors()), 3)
}

func TestRefresh_FragmentMissingFromPageIsNoop(t *testing.T) {
	view := newFakeContainer("A", "B")
	view.scrollTop = 120
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: `<html><body><p>login</p></body></html>`}))

	for i := 0; i < 3; i++ {
		err := h.r.Refresh(context.Background())
		require.ErrorIs(t, err, ErrRemoteFragmentMissing)
	}

	assert.Equal(t, []string{"A", "B"}, view.Bodies())
	assert.Equal(t, 120, view.ScrollTop())
	assert.Equal(t, 0, view.Replaced())

	errs := h.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, StageSelect, errs[0].Stage)
	assert.Equal(t, uint64(3), h.r.Stats().Skipped)
}

func TestRefresh_NearBottomIsPinned(t *testing.T) {
	view := newFakeContainer("A")
	view.scrollTop = 700 // 1000 - 700 - 300 = 0
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A", "B")}))

	require.NoError(t, h.r.Refresh(context.Background()))

	assert.Equal(t, 1000, view.ScrollTop())
	assert.True(t, h.waitApplied(t).Pinned)
}

func TestRefresh_ScrolledUpIsLeftAlone(t *testing.T) {
	view := newFakeContainer("A")
	view.scrollTop = 100 // 1000 - 100 - 300 = 600
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A", "B")}))

	require.NoError(t, h.r.Refresh(context.Background()))

	assert.Equal(t, []string{"A", "B"}, view.Bodies())
	assert.Equal(t, 100, view.ScrollTop())
	assert.False(t, h.waitApplied(t).Pinned)
}

func TestRefresh_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		scrollTop int
		pinned    bool
	}{
		{"gap 49", 651, true},
		{"gap 50", 650, false},
		{"overscrolled by 30", 730, true},
		{"overscrolled by 50", 750, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newFakeContainer("A")
			view.scrollTop = tt.scrollTop
			h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A")}))

			require.NoError(t, h.r.Refresh(context.Background()))
			if tt.pinned {
				assert.Equal(t, 1000, view.ScrollTop())
			} else {
				assert.Equal(t, tt.scrollTop, view.ScrollTop())
			}
		})
	}
}

func TestRefresh_UsesPreFetchOffsetAndPostReplaceHeight(t *testing.T) {
	// Ten rows of 40 units, viewing the last 300: at the bottom before the
	// fetch. Two new rows arrive; the reader follows them.
	view := newFakeContainer("1", "2", "3", "4", "5", "6", "7", "8", "9", "10")
	view.rowHeight = 40
	view.scrollTop = 100
	h := newHarness(t, chatURL, view, newFakeFetcher(response{
		body: chatPage("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"),
	}))

	require.NoError(t, h.r.Refresh(context.Background()))
	// 440 - 100 - 300 = 40 < 50
	assert.Equal(t, 440, view.ScrollTop())
}

func TestRefresh_FetchErrorLeavesView(t *testing.T) {
	boom := errors.New("connection refused")
	view := newFakeContainer("A", "B")
	view.scrollTop = 42
	h := newHarness(t, chatURL, view, newFakeFetcher(response{err: boom}))

	var err error
	require.NotPanics(t, func() { err = h.r.Refresh(context.Background()) })
	require.ErrorIs(t, err, boom)

	var ce *CycleError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageFetch, ce.Stage)

	assert.Equal(t, []string{"A", "B"}, view.Bodies())
	assert.Equal(t, 42, view.ScrollTop())

	errs := h.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, uint64(1), h.r.Stats().Failed)
}

func TestRefresh_NilErrorHookIsSilent(t *testing.T) {
	view := newFakeContainer("A")
	r, err := New(Options{
		PageURL:   chatURL,
		Fetcher:   newFakeFetcher(response{err: errors.New("offline")}),
		Container: view,
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() { _ = r.Refresh(context.Background()) })
	assert.Equal(t, []string{"A"}, view.Bodies())
}

func TestRefresh_LiveFragmentMissingSkipsFetch(t *testing.T) {
	view := newFakeContainer()
	view.present = false
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A")}))

	err := h.r.Refresh(context.Background())
	require.ErrorIs(t, err, ErrLiveFragmentMissing)
	assert.Equal(t, 0, h.fetcher.Calls())
	require.Len(t, h.Errors(), 1)
	assert.Equal(t, StageLocate, h.Errors()[0].Stage)
}

func TestRefresh_FetchTimeout(t *testing.T) {
	view := newFakeContainer("A")
	h := newHarness(t, chatURL, view,
		newFakeFetcher(response{body: chatPage("B"), gate: make(chan struct{})}),
		func(o *Options) { o.FetchTimeout = 20 * time.Millisecond },
	)

	err := h.r.Refresh(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"A"}, view.Bodies())
}

// =============================================================================
// OVERLAP TESTS
// =============================================================================

func TestRefresh_OverlappingCycles(t *testing.T) {
	tests := []struct {
		name      string
		dropStale bool
		want      []string
	}{
		{"last to finish wins", false, []string{"old"}},
		{"drop stale keeps newest", true, []string{"new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := make(chan struct{})
			view := newFakeContainer("A")
			fetcher := newFakeFetcher(
				response{body: chatPage("old"), gate: gate},
				response{body: chatPage("new")},
			)
			h := newHarness(t, chatURL, view, fetcher, func(o *Options) { o.DropStale = tt.dropStale })

			slow := make(chan error, 1)
			go func() { slow <- h.r.Refresh(context.Background()) }()
			require.Equal(t, 0, <-fetcher.entered)

			require.NoError(t, h.r.Refresh(context.Background()))
			require.Equal(t, []string{"new"}, view.Bodies())

			close(gate)
			err := <-slow
			if tt.dropStale {
				require.ErrorIs(t, err, errStale)
				assert.Equal(t, uint64(1), h.r.Stats().Discarded)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, view.Bodies())
		})
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestStart_InactiveRegistersNothing(t *testing.T) {
	view := newFakeContainer("A")
	h := newHarness(t, "http://localhost:5000/student/dashboard", view, newFakeFetcher(response{body: chatPage("B")}))

	require.NoError(t, h.r.Start(context.Background()))
	assert.False(t, h.r.Running())
	assert.Empty(t, h.clock.Tickers())

	h.clock.Tick()
	assert.Equal(t, 0, h.fetcher.Calls())
	assert.ErrorIs(t, h.r.Refresh(context.Background()), ErrInactive)
	assert.ErrorIs(t, h.r.Trigger(), ErrInactive)
	assert.Equal(t, []string{"A"}, view.Bodies())
}

func TestStart_TicksDriveCycles(t *testing.T) {
	view := newFakeContainer("A")
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A", "B")}))

	require.NoError(t, h.r.Start(context.Background()))
	assert.ErrorIs(t, h.r.Start(context.Background()), ErrAlreadyRunning)

	tickers := h.clock.Tickers()
	require.Len(t, tickers, 1)
	assert.Equal(t, 5*time.Second, tickers[0].period)

	h.clock.Tick()
	h.waitApplied(t)
	h.clock.Tick()
	h.waitApplied(t)

	assert.Equal(t, []string{"A", "B"}, view.Bodies())
	assert.Equal(t, uint64(2), h.r.Stats().Applied)

	h.r.Stop()
	assert.False(t, h.r.Running())
	assert.True(t, tickers[0].Stopped())
}

func TestStop_DiscardsInFlightCycle(t *testing.T) {
	view := newFakeContainer("A")
	fetcher := newFakeFetcher(response{body: chatPage("late"), gate: make(chan struct{})})
	h := newHarness(t, chatURL, view, fetcher)

	require.NoError(t, h.r.Start(context.Background()))
	h.clock.Tick()
	<-fetcher.entered

	h.r.Stop()
	h.r.Stop()

	require.Eventually(t, func() bool { return h.r.Stats().Discarded == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A"}, view.Bodies())
	assert.Empty(t, h.Errors())
}

func TestTrigger_RateLimited(t *testing.T) {
	view := newFakeContainer("A")
	h := newHarness(t, chatURL, view, newFakeFetcher(response{body: chatPage("A", "B")}))

	assert.ErrorIs(t, h.r.Trigger(), ErrNotRunning)

	require.NoError(t, h.r.Start(context.Background()))
	require.NoError(t, h.r.Trigger())
	assert.True(t, h.waitApplied(t).Cycle.Manual)
	assert.ErrorIs(t, h.r.Trigger(), ErrRateLimited)

	h.clock.Advance(time.Second)
	require.NoError(t, h.r.Trigger())
	h.waitApplied(t)
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_AppliesAndScrollsToBottom(t *testing.T) {
	view := newFakeContainer("A")
	view.scrollTop = 10
	h := newHarness(t, chatURL, view, newFakeFetcher())

	doc, err := fragment.ParseBytes([]byte(chatPage("A", "mine")))
	require.NoError(t, err)
	require.NoError(t, h.r.Load(doc))

	assert.Equal(t, []string{"A", "mine"}, view.Bodies())
	assert.Equal(t, 1000, view.ScrollTop())
	assert.True(t, h.waitApplied(t).Pinned)
	assert.Equal(t, 0, h.fetcher.Calls())

	empty, err := fragment.ParseBytes([]byte(`<html></html>`))
	require.NoError(t, err)
	assert.ErrorIs(t, h.r.Load(empty), ErrRemoteFragmentMissing)
}
