// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/ui/styles"
)

// =============================================================================
// HELP MODAL - Markdown overlay rendered with glamour
// =============================================================================

// Modal shows a markdown document centered over the chat view.
type Modal struct {
	theme    *styles.Theme
	markdown string
	visible  bool

	width, height int
	rendered      string
	renderedWidth int
}

// NewModal creates a hidden modal holding markdown.
func NewModal(theme *styles.Theme, markdown string) *Modal {
	return &Modal{theme: theme, markdown: markdown}
}

// SetSize sets the screen size the modal is centered in.
func (m *Modal) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetTheme swaps the theme and drops the cached rendering.
func (m *Modal) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.rendered = ""
}

// Visible reports whether the modal is open.
func (m *Modal) Visible() bool { return m.visible }

// Open shows the modal.
func (m *Modal) Open() { m.visible = true }

// Close hides the modal.
func (m *Modal) Close() { m.visible = false }

// Toggle flips visibility.
func (m *Modal) Toggle() { m.visible = !m.visible }

// View renders the modal centered on screen, or "" when hidden.
func (m *Modal) View() string {
	if !m.visible {
		return ""
	}

	wrap := m.width - 12
	if wrap > 72 {
		wrap = 72
	}
	if wrap < 20 {
		wrap = 20
	}
	if m.rendered == "" || m.renderedWidth != wrap {
		m.rendered = m.render(wrap)
		m.renderedWidth = wrap
	}

	box := m.theme.Modal.Render(m.rendered)
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// render runs the markdown through glamour, falling back to the raw text.
func (m *Modal) render(wrap int) string {
	style := "light"
	if m.theme == nil || m.theme.IsDark {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return m.markdown
	}
	out, err := r.Render(m.markdown)
	if err != nil {
		return m.markdown
	}
	return strings.Trim(out, "\n")
}
