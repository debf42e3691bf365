// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"context"

	"github.com/google/uuid"

	"github.com/jeranaias/chatwatch/internal/fragment"
)

// cycle runs one refresh attempt. The returned error is for callers that
// wait on the cycle; hooks have already been notified.
func (r *Refresher) cycle(ctx context.Context, manual bool) error {
	c := Cycle{
		ID:      uuid.NewString(),
		Seq:     r.seq.Add(1),
		Started: r.clock.Now(),
		Manual:  manual,
	}
	r.started.Add(1)

	// Locate the live fragment and record where the reader is.
	var present bool
	err := r.onUI(ctx, func() {
		if ctx.Err() != nil {
			return
		}
		present = r.container.Present()
		if present {
			c.ScrollTop = r.container.ScrollTop()
		}
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return r.discard(err)
	}
	if !present {
		r.skipped.Add(1)
		return r.report(c, StageLocate, ErrLiveFragmentMissing)
	}

	// Fetch. This is the only point where the cycle waits on I/O.
	body, err := r.fetch(ctx)
	if ctx.Err() != nil {
		return r.discard(ctx.Err())
	}
	if err != nil {
		r.failed.Add(1)
		return r.report(c, StageFetch, err)
	}

	// Parse and select.
	doc, err := fragment.ParseBytes(body)
	if err != nil {
		r.failed.Add(1)
		return r.report(c, StageParse, err)
	}
	frag := doc.Find(r.selector)
	if frag == nil {
		r.skipped.Add(1)
		return r.report(c, StageSelect, ErrRemoteFragmentMissing)
	}

	// Replace and maybe pin, back on the UI thread.
	var applyErr error
	err = r.onUI(ctx, func() {
		if ctx.Err() != nil {
			applyErr = ctx.Err()
			return
		}
		if r.opts.DropStale && c.Seq < r.newest.Load() {
			applyErr = errStale
			return
		}
		pinned := r.replace(frag, c.ScrollTop)
		r.markApplied(c.Seq)
		if r.opts.OnApply != nil {
			r.opts.OnApply(Applied{Cycle: c, Fragment: frag, Document: doc, Pinned: pinned})
		}
	})
	if err == nil {
		err = applyErr
	}
	if err != nil {
		return r.discard(err)
	}
	return nil
}

func (r *Refresher) fetch(ctx context.Context) ([]byte, error) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	if r.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.FetchTimeout)
		defer cancel()
	}
	return r.fetcher.Fetch(ctx, r.pageURL)
}

// replace swaps the content and applies the near-bottom rule using the
// offset recorded before the fetch and the heights measured after the swap.
func (r *Refresher) replace(frag *fragment.Fragment, scrollTop int) bool {
	r.container.ReplaceContent(frag)

	height := r.container.ScrollHeight()
	gap := height - scrollTop - r.container.ClientHeight()
	if gap < 0 {
		gap = -gap
	}
	if gap >= r.nearBottom {
		return false
	}
	r.container.SetScrollTop(height)
	return true
}

// onUI runs fn through the dispatcher and waits for it, or for ctx.
func (r *Refresher) onUI(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	r.dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) markApplied(seq uint64) {
	for {
		cur := r.newest.Load()
		if seq <= cur || r.newest.CompareAndSwap(cur, seq) {
			break
		}
	}
	r.applied.Add(1)

	now := r.clock.Now()
	r.mu.Lock()
	r.lastApplied = now
	r.mu.Unlock()
}

// discard counts a cycle dropped by Stop or by a newer applied cycle.
func (r *Refresher) discard(err error) error {
	r.discarded.Add(1)
	return err
}

// report records a failed or skipped cycle and hands it to OnError on the
// UI thread.
func (r *Refresher) report(c Cycle, stage Stage, err error) error {
	ce := &CycleError{Cycle: c, Stage: stage, Err: err}

	now := r.clock.Now()
	r.mu.Lock()
	r.lastFailed = now
	r.mu.Unlock()

	if hook := r.opts.OnError; hook != nil {
		r.dispatch(func() { hook(ce) })
	}
	return ce
}
