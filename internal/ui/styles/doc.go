// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatwatch TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection; the ui.theme setting can force either variant.

# Color System (colors.go)

  - Cyan: brand color, the viewing user's own messages
  - Purple: other participants' names
  - Emerald, Amber, Rose: success, warning and error states
  - Text and surface tokens for body text, timestamps and bars

Status indicators always pair a color with an ASCII shape ([OK], [X], [!],
[i]) so state is readable without color.

# Theme (theme.go)

Theme bundles the lipgloss styles the chat view renders with:

	theme := styles.NewTheme("auto")
	line := theme.EntryBody.Render(entry.Body)

# Spinners (spinner.go)

SpinnerConfig frame sets are shared with the bubbles spinner used in the
status bar while a fetch is in flight.
*/
package styles
