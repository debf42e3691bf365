// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/model"
	"github.com/jeranaias/chatwatch/internal/ui/styles"
)

// DefaultRowPixels is how many pixel units one terminal row counts for.
const DefaultRowPixels = 16

// =============================================================================
// CHAT VIEWPORT COMPONENT - Scrollable chat area kept current by a refresher
// =============================================================================

// ChatViewport is the live message region. It satisfies refresh.Container:
// scroll metrics are reported in pixel units of RowPixels per row so the
// refresher's near-bottom threshold keeps its meaning in a terminal.
//
// Like every bubbletea component it must only be touched from Update.
type ChatViewport struct {
	viewport  viewport.Model
	theme     *styles.Theme
	selectors fragment.EntrySelectors

	width, height  int
	rowPixels      int
	showTimestamps bool
	present        bool

	entries  model.Transcript
	fallback string // fragment text when no entries could be extracted
	loaded   bool
	unseen   int // entries that arrived while scrolled away from the bottom
}

// NewChatViewport creates a ChatViewport that extracts entries with sel.
func NewChatViewport(theme *styles.Theme, sel fragment.EntrySelectors) *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return &ChatViewport{
		viewport:       vp,
		theme:          theme,
		selectors:      sel,
		width:          80,
		height:         20,
		rowPixels:      DefaultRowPixels,
		showTimestamps: true,
		present:        true,
	}
}

// SetSize updates the viewport dimensions. One row is kept for the
// scroll indicator.
func (cv *ChatViewport) SetSize(width, height int) {
	if height < 2 {
		height = 2
	}
	cv.width = width
	cv.height = height
	cv.viewport.Width = width
	cv.viewport.Height = height - 1
	cv.render()
}

// SetRowPixels changes the pixel units per row.
func (cv *ChatViewport) SetRowPixels(px int) {
	if px > 0 {
		cv.rowPixels = px
	}
}

// SetShowTimestamps toggles the time column.
func (cv *ChatViewport) SetShowTimestamps(show bool) {
	if cv.showTimestamps != show {
		cv.showTimestamps = show
		cv.render()
	}
}

// SetTheme swaps the theme and re-renders.
func (cv *ChatViewport) SetTheme(theme *styles.Theme) {
	cv.theme = theme
	cv.render()
}

// SetPresent marks whether the live region exists.
func (cv *ChatViewport) SetPresent(present bool) {
	cv.present = present
}

// Transcript returns the entries currently shown.
func (cv *ChatViewport) Transcript() model.Transcript {
	return cv.entries
}

// Loaded reports whether content has been applied at least once.
func (cv *ChatViewport) Loaded() bool {
	return cv.loaded
}

// Unseen returns how many entries arrived below the visible area.
func (cv *ChatViewport) Unseen() int {
	return cv.unseen
}

// ==========================================================================
// refresh.Container
// ==========================================================================

// Present reports whether the live region exists.
func (cv *ChatViewport) Present() bool {
	return cv.present
}

// ScrollTop returns the offset of the first visible row in pixel units.
func (cv *ChatViewport) ScrollTop() int {
	return cv.viewport.YOffset * cv.rowPixels
}

// SetScrollTop scrolls to offset, rounding down to a whole row. Offsets past
// the end clamp to the bottom.
func (cv *ChatViewport) SetScrollTop(offset int) {
	cv.viewport.SetYOffset(offset / cv.rowPixels)
	cv.syncUnseen()
}

// ScrollHeight returns the content height in pixel units. Content shorter
// than the viewport counts as filling it.
func (cv *ChatViewport) ScrollHeight() int {
	rows := cv.viewport.TotalLineCount()
	if rows < cv.viewport.Height {
		rows = cv.viewport.Height
	}
	return rows * cv.rowPixels
}

// ClientHeight returns the visible height in pixel units.
func (cv *ChatViewport) ClientHeight() int {
	return cv.viewport.Height * cv.rowPixels
}

// ReplaceContent swaps the shown entries for those in f.
func (cv *ChatViewport) ReplaceContent(f *fragment.Fragment) {
	next := f.Entries(cv.selectors)
	if cv.loaded {
		if added := len(next) - cv.entries.CommonPrefix(next); added > 0 {
			cv.unseen += added
		}
	}
	cv.entries = next
	cv.fallback = ""
	if len(next) == 0 {
		cv.fallback = f.Text()
	}
	cv.loaded = true
	cv.render()
	cv.syncUnseen()
}

// ==========================================================================
// SCROLLING
// ==========================================================================

// ScrollToBottom scrolls to the bottom of the viewport.
func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.syncUnseen()
}

// ScrollToTop scrolls to the top of the viewport.
func (cv *ChatViewport) ScrollToTop() {
	cv.viewport.GotoTop()
}

// ScrollUp scrolls up by n rows.
func (cv *ChatViewport) ScrollUp(n int) {
	cv.viewport.LineUp(n)
}

// ScrollDown scrolls down by n rows.
func (cv *ChatViewport) ScrollDown(n int) {
	cv.viewport.LineDown(n)
	cv.syncUnseen()
}

// PageUp scrolls up by one page.
func (cv *ChatViewport) PageUp() {
	cv.viewport.ViewUp()
}

// PageDown scrolls down by one page.
func (cv *ChatViewport) PageDown() {
	cv.viewport.ViewDown()
	cv.syncUnseen()
}

// AtBottom returns true if the viewport is at the bottom.
func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// ScrollPercent returns the scroll position as a fraction.
func (cv *ChatViewport) ScrollPercent() float64 {
	return cv.viewport.ScrollPercent()
}

func (cv *ChatViewport) syncUnseen() {
	if cv.viewport.AtBottom() {
		cv.unseen = 0
	}
}

// Update handles mouse wheel scrolling. Keys are routed by the chat model.
func (cv *ChatViewport) Update(msg tea.Msg) (*ChatViewport, tea.Cmd) {
	if msg, ok := msg.(tea.MouseMsg); ok {
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.ScrollUp(3)
		case tea.MouseWheelDown:
			cv.ScrollDown(3)
		}
	}
	return cv, nil
}

// ==========================================================================
// RENDERING
// ==========================================================================

// View renders the viewport and its scroll indicator row.
func (cv *ChatViewport) View() string {
	return cv.viewport.View() + "\n" + cv.renderIndicator()
}

func (cv *ChatViewport) renderIndicator() string {
	style := lipgloss.NewStyle().Width(cv.width).Align(lipgloss.Center)

	switch {
	case cv.unseen > 0:
		label := "message"
		if cv.unseen > 1 {
			label = "messages"
		}
		return style.Foreground(styles.Cyan).
			Render("v " + fmtNumber(cv.unseen) + " new " + label + " below (End)")
	case !cv.viewport.AtBottom():
		return style.Foreground(styles.TextMuted).Italic(true).
			Render(fmtPercent(cv.viewport.ScrollPercent()))
	}
	return ""
}

// render rebuilds the viewport content from the current entries.
func (cv *ChatViewport) render() {
	cv.viewport.SetContent(cv.renderContent())
}

func (cv *ChatViewport) renderContent() string {
	t := cv.theme
	bodyWidth := cv.width - 8
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	if len(cv.entries) == 0 {
		text := "No messages yet."
		if !cv.loaded {
			text = "Loading conversation..."
		}
		if cv.fallback != "" {
			return strings.Join(wrapText(cv.fallback, cv.width-2), "\n")
		}
		return t.Empty.Render(text)
	}

	blocks := make([]string, 0, len(cv.entries))
	for _, e := range cv.entries {
		blocks = append(blocks, cv.renderEntry(e, bodyWidth))
	}
	return strings.Join(blocks, "\n\n")
}

func (cv *ChatViewport) renderEntry(e model.Entry, width int) string {
	t := cv.theme

	author, box, authorStyle := e.Author, t.EntryOther, t.EntryAuthorOther
	if e.Mine {
		box, authorStyle = t.EntryMine, t.EntryAuthorMine
		if author == "" {
			author = "You"
		}
	}

	header := authorStyle.Render(author)
	if cv.showTimestamps && e.Time != "" {
		header += "  " + t.EntryTime.Render(e.Time)
	}

	lines := wrapText(e.Body, width)
	for i, l := range lines {
		lines[i] = t.EntryBody.Render(l)
	}
	return box.Render(header + "\n" + strings.Join(lines, "\n"))
}
