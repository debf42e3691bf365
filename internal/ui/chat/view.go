// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/ui/components"
)

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.help.Visible() {
		return m.help.View()
	}

	now := time.Now()
	body := m.overlayToasts(m.viewport.View(), now)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderCompose(),
		m.status.View(m.clock.Now()),
	)
}

// overlayToasts draws the toast stack over the bottom right of body.
func (m Model) overlayToasts(body string, now time.Time) string {
	stack := components.RenderToastStack(m.theme, m.toasts.Toasts(), m.width, now)
	if stack == "" {
		return body
	}

	lines := strings.Split(body, "\n")
	toastLines := strings.Split(stack, "\n")
	if len(toastLines) > len(lines) {
		toastLines = toastLines[len(toastLines)-len(lines):]
	}

	offset := len(lines) - len(toastLines)
	for i, tl := range toastLines {
		lines[offset+i] = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, tl+"  ")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCompose() string {
	t := m.theme
	box := t.ComposeBox
	if m.composing {
		box = t.ComposeBoxFocused
	}

	content := m.compose.View()
	switch {
	case m.sending:
		content = t.ComposeHint.Render("Sending...")
	case !m.composing && m.compose.Value() == "":
		content = t.ComposeHint.Render("Press Tab to write a message")
	}
	return box.Width(m.width - 2).Render(content)
}
