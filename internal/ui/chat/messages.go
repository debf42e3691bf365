// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/storage"
)

// =============================================================================
// REFRESH MESSAGES
// =============================================================================

// DispatchMsg carries a closure that must run on the UI thread.
type DispatchMsg struct {
	Fn func()
}

// refresherStartedMsg reports the result of starting the refresher.
type refresherStartedMsg struct {
	err error
}

// =============================================================================
// PAGE MESSAGES
// =============================================================================

// pageLoadedMsg carries the initial page fetch.
type pageLoadedMsg struct {
	doc *fragment.Document
	err error
}

// snapshotLoadedMsg carries the stored fragment shown before the first fetch.
type snapshotLoadedMsg struct {
	snap storage.Snapshot
	err  error
}

// submitResultMsg carries the page returned after posting a message.
type submitResultMsg struct {
	doc *fragment.Document
	err error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// TICKS
// =============================================================================

// statusTickMsg keeps the status bar's ages and counters current.
type statusTickMsg time.Time

func statusTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
