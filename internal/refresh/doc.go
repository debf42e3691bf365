// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package refresh keeps a chat view current by polling the rendered page.
//
// A Refresher re-fetches the page URL on a fixed period, extracts the
// chat-messages fragment and replaces the live container's content with it.
// After each replacement the view is pinned to the bottom only when the
// reader was already near the bottom before the fetch started, so someone
// reading older messages is left where they are.
//
// # Collaborators
//
// All side effects are injected:
//
//   - Clock: source of the fixed-period ticker
//   - Fetcher: retrieves the page body
//   - Container: the live, scrollable view being kept current
//   - Dispatcher: runs container reads and writes on the UI thread
//
// # Cycle
//
// One cycle runs per tick:
//
//  1. Skip when the container is not present.
//  2. Record the current scroll offset.
//  3. Fetch the page (the only suspension point).
//  4. Parse it and locate the fragment selector.
//  5. Replace the container content wholesale.
//  6. Scroll to the bottom if the recorded offset was within the near-bottom
//     threshold of the new bottom.
//
// Cycles are not serialised: a fetch slower than the interval overlaps the
// next tick. Failures leave the container untouched and are reported to
// OnError when set; otherwise they are dropped.
//
// # Usage
//
//	r, err := refresh.New(refresh.Options{
//	    PageURL:    "http://localhost:5000/student/chat",
//	    Fetcher:    client,
//	    Container:  view,
//	    Dispatcher: dispatch,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop()
package refresh
