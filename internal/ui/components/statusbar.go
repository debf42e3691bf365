// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/ui/styles"
	"github.com/jeranaias/chatwatch/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Refresh state along the bottom row
// =============================================================================

// State summarizes how current the view is.
type State int

const (
	StateInactive State = iota // page is not a chat page
	StateLoading               // nothing applied yet
	StateLive
	StateStale // no successful refresh for several intervals
	StateError // the most recent cycle failed
)

// StaleAfter is how many missed intervals make the view stale.
const StaleAfter = 3

// String returns the display string for the state.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Icon returns the accessible indicator for the state.
func (s State) Icon() string {
	switch s {
	case StateLive:
		return styles.StatusIndicators.Active
	case StateStale:
		return styles.StatusIndicators.Warning
	case StateError:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// StatusBar renders refresher state, the page URL and key hints.
type StatusBar struct {
	theme    *styles.Theme
	spinner  spinner.Model
	spinning bool
	width    int

	url      string
	active   bool
	interval time.Duration
	stats    refresh.Stats
	lastErr  string
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		theme: theme,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Spinner{
				Frames: styles.LineSpinner.Frames,
				FPS:    styles.LineSpinner.Duration(),
			}),
			spinner.WithStyle(theme.Spinner),
		),
		width:  80,
		active: true,
	}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) { s.width = width }

// SetTheme swaps the theme.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
	s.spinner.Style = theme.Spinner
}

// SetPage sets the page being watched.
func (s *StatusBar) SetPage(url string, active bool, interval time.Duration) {
	s.url, s.active, s.interval = url, active, interval
}

// SetStats records refresher stats. It returns a command that starts the
// spinner when a fetch has just gone in flight.
func (s *StatusBar) SetStats(stats refresh.Stats) tea.Cmd {
	s.stats = stats
	if stats.InFlight > 0 && !s.spinning {
		s.spinning = true
		return s.spinner.Tick
	}
	return nil
}

// SetError records the most recent failure; "" clears it.
func (s *StatusBar) SetError(msg string) { s.lastErr = msg }

// Update advances the spinner while a fetch is in flight.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return nil
	}
	if s.stats.InFlight <= 0 {
		s.spinning = false
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// State derives the display state at now.
func (s *StatusBar) State(now time.Time) State {
	switch {
	case !s.active:
		return StateInactive
	case !s.stats.LastFailed.IsZero() && s.stats.LastFailed.After(s.stats.LastApplied):
		return StateError
	case s.stats.LastApplied.IsZero():
		return StateLoading
	case s.interval > 0 && now.Sub(s.stats.LastApplied) > StaleAfter*s.interval:
		return StateStale
	default:
		return StateLive
	}
}

// View renders the status bar at now.
func (s *StatusBar) View(now time.Time) string {
	t := s.theme
	state := s.State(now)

	var stateStyle lipgloss.Style
	switch state {
	case StateLive:
		stateStyle = t.StatusLive
	case StateStale:
		stateStyle = t.StatusStale
	case StateError:
		stateStyle = t.StatusError
	default:
		stateStyle = t.StatusMuted
	}

	left := stateStyle.Render(state.Icon() + " " + state.String())
	if s.stats.InFlight > 0 {
		left = s.spinner.View() + " " + left
	}

	var right []string
	if !s.stats.LastApplied.IsZero() {
		right = append(right, "updated "+fmtAge(now.Sub(s.stats.LastApplied)))
	}
	if t.GetLayoutMode() != styles.LayoutNarrow {
		right = append(right, fmtNumber(int(s.stats.Applied))+" refreshes")
	}
	right = append(right, t.ShortcutKey.Render("?")+" "+t.ShortcutDesc.Render("help"))
	rightStr := strings.Join(right, t.StatusMuted.Render(" | "))

	inner := s.width - 2
	middleWidth := inner - lipgloss.Width(left) - lipgloss.Width(rightStr) - 2
	middle := ""
	if state == StateError && s.lastErr != "" {
		middle = t.StatusMuted.Render(util.Truncate(s.lastErr, middleWidth))
	} else if t.GetLayoutMode() == styles.LayoutWide {
		middle = t.StatusMuted.Render(util.Truncate(s.url, middleWidth))
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(rightStr)
	if gap < 2 {
		gap = 2
	}
	half := gap / 2
	line := left + strings.Repeat(" ", half) + middle + strings.Repeat(" ", gap-half) + rightStr
	return t.StatusBar.Width(s.width).MaxWidth(s.width).Render(line)
}
