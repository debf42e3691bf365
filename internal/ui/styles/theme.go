// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderURL   lipgloss.Style

	// ==========================================================================
	// ENTRY STYLES
	// ==========================================================================

	EntryMine        lipgloss.Style
	EntryOther       lipgloss.Style
	EntryAuthorMine  lipgloss.Style
	EntryAuthorOther lipgloss.Style
	EntryTime        lipgloss.Style
	EntryBody        lipgloss.Style
	Empty            lipgloss.Style

	// ==========================================================================
	// COMPOSE STYLES
	// ==========================================================================

	ComposeBox        lipgloss.Style
	ComposeBoxFocused lipgloss.Style
	ComposePrompt     lipgloss.Style
	ComposeHint       lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusLive   lipgloss.Style
	StatusStale  lipgloss.Style
	StatusError  lipgloss.Style
	StatusMuted  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style

	// ==========================================================================
	// TOAST AND MODAL STYLES
	// ==========================================================================

	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastInfo    lipgloss.Style
	Modal        lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; auto keeps
// the terminal's detected background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()

	switch mode {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderURL = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.EntryMine = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(MineBorder).
		PaddingLeft(1).
		MarginLeft(4)
	t.EntryOther = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(OtherBorder).
		PaddingLeft(1)
	t.EntryAuthorMine = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.EntryAuthorOther = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.EntryTime = lipgloss.NewStyle().Foreground(TextMuted)
	t.EntryBody = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Empty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	t.ComposeBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.ComposeBoxFocused = t.ComposeBox.
		BorderForeground(Cyan)
	t.ComposePrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ComposeHint = lipgloss.NewStyle().Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusLive = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusStale = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)
	t.StatusMuted = lipgloss.NewStyle().Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	t.ToastSuccess = toast.BorderForeground(Emerald).Foreground(Emerald)
	t.ToastError = toast.BorderForeground(Rose).Foreground(Rose)
	t.ToastWarning = toast.BorderForeground(Amber).Foreground(Amber)
	t.ToastInfo = toast.BorderForeground(Blue).Foreground(Blue)

	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
