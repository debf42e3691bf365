// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"context"
	"sync"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// Container is the live, scrollable region being kept current.
// Its methods are only called through the Dispatcher.
//
// Metrics share one unit (pixels in a browser, scaled rows in a terminal).
// ScrollTop is the offset of the first visible unit, ScrollHeight the total
// content height and ClientHeight the visible height.
type Container interface {
	// Present reports whether the live region currently exists.
	Present() bool

	ScrollTop() int
	SetScrollTop(offset int)
	ScrollHeight() int
	ClientHeight() int

	// ReplaceContent swaps the whole content for the fragment's.
	ReplaceContent(f *fragment.Fragment)
}

// Fetcher retrieves the body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Dispatcher runs fn on the UI thread. It may run fn before returning or
// later; it must run each fn exactly once unless the UI has shut down.
type Dispatcher func(fn func())

// Serial returns a Dispatcher that runs closures immediately, one at a time.
// It suits front ends without an event loop of their own.
func Serial() Dispatcher {
	var mu sync.Mutex
	return func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}
