// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrLiveFragmentMissing means the container was not present when a
	// cycle began; the cycle was skipped.
	ErrLiveFragmentMissing = errors.New("live fragment not present")

	// ErrRemoteFragmentMissing means the fetched page had no element
	// matching the selector; the container was left untouched.
	ErrRemoteFragmentMissing = errors.New("fragment missing from fetched page")

	// ErrInactive is returned by operations on a refresher whose page is
	// not a chat page.
	ErrInactive = errors.New("refresher inactive for this page")

	ErrAlreadyRunning = errors.New("refresher already running")
	ErrNotRunning     = errors.New("refresher not running")

	// ErrRateLimited is returned by Trigger when manual refreshes come
	// faster than the configured rate.
	ErrRateLimited = errors.New("manual refresh rate limited")

	// errStale marks a cycle superseded by a newer applied one.
	errStale = errors.New("stale cycle")
)

// Stage names the step of a cycle that failed.
type Stage string

const (
	StageLocate Stage = "locate"
	StageFetch  Stage = "fetch"
	StageParse  Stage = "parse"
	StageSelect Stage = "select"
)

// CycleError reports a failed cycle. The container is unchanged.
type CycleError struct {
	Cycle Cycle
	Stage Stage
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("refresh cycle %d (%s) failed at %s: %v", e.Cycle.Seq, e.Cycle.ID, e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}
