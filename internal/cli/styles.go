// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for plain-terminal output (tail, once, config).
//
// Colors are disabled for piped output and when NO_COLOR is set.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwatch/internal/model"
	"github.com/jeranaias/chatwatch/internal/ui/styles"
	"github.com/jeranaias/chatwatch/internal/util"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(25)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	AuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	MineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)
)

// RenderConditional renders text with style only when colors are enabled.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// RenderLabel renders a fixed-width label.
func RenderLabel(label string) string {
	if !ColorsEnabled() {
		return util.PadRight(label, 24) + " "
	}
	return LabelStyle.Render(label)
}

// RenderEntry renders one chat entry on a single line.
func RenderEntry(e model.Entry) string {
	var b strings.Builder
	if e.Time != "" {
		b.WriteString(RenderConditional(DimStyle, "["+e.Time+"]"))
		b.WriteString(" ")
	}
	switch {
	case e.Mine:
		b.WriteString(RenderConditional(MineStyle, "You:"))
		b.WriteString(" ")
	case e.Author != "":
		b.WriteString(RenderConditional(AuthorStyle, e.Author+":"))
		b.WriteString(" ")
	}
	b.WriteString(e.Body)
	return b.String()
}

// RenderFlash renders a server flash message with its kind's color.
func RenderFlash(f model.Flash) string {
	style := DimStyle
	switch f.Kind {
	case model.FlashSuccess:
		style = SuccessStyle
	case model.FlashDanger:
		style = ErrorStyle
	case model.FlashWarning:
		style = WarningStyle
	}
	return RenderConditional(style, "* "+f.Text)
}
