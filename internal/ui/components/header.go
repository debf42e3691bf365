// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/ui/styles"
	"github.com/jeranaias/chatwatch/internal/util"
)

// Header is the top row: page title on the left, URL on the right.
type Header struct {
	theme *styles.Theme
	width int
	title string
	url   string
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme, width: 80, title: "chatwatch"}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) { h.width = width }

// SetTheme swaps the theme.
func (h *Header) SetTheme(theme *styles.Theme) { h.theme = theme }

// SetTitle sets the title; "" keeps the current one.
func (h *Header) SetTitle(title string) {
	if title != "" {
		h.title = title
	}
}

// Title returns the current title.
func (h *Header) Title() string { return h.title }

// SetURL sets the URL shown on the right.
func (h *Header) SetURL(url string) { h.url = url }

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	inner := h.width - 2

	title := t.HeaderTitle.Render(util.Truncate(h.title, inner/2))
	urlWidth := inner - lipgloss.Width(title) - 2
	url := ""
	if urlWidth > 10 {
		url = t.HeaderURL.Render(util.Truncate(h.url, urlWidth))
	}

	gap := inner - lipgloss.Width(title) - lipgloss.Width(url)
	if gap < 1 {
		gap = 1
	}
	line := title + lipgloss.NewStyle().Width(gap).Render("") + url
	return t.Header.Width(h.width).MaxWidth(h.width).Render(line)
}
