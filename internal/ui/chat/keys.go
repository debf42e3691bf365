// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Refresh   key.Binding
	Compose   key.Binding
	Send      key.Binding
	Blur      key.Binding
	Copy      key.Binding
	Export    key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "oldest message"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "latest message"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh now"),
		),
		Compose: key.NewBinding(
			key.WithKeys("tab", "i"),
			key.WithHelp("Tab/i", "write a message"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc", "tab"),
			key.WithHelp("Esc/Tab", "leave the compose box"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy last message"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "save conversation as Markdown"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss notification"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// HelpMarkdown renders the key map as the help screen.
func (k KeyMap) HelpMarkdown() string {
	var b strings.Builder
	b.WriteString("# chatwatch\n\n")
	b.WriteString("The conversation refreshes on its own. While you are reading ")
	b.WriteString("older messages the view stays put; at the bottom it follows ")
	b.WriteString("new ones.\n\n")

	section := func(title string, bindings ...key.Binding) {
		b.WriteString("## " + title + "\n\n")
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, kb := range bindings {
			h := kb.Help()
			b.WriteString("| `" + h.Key + "` | " + h.Desc + " |\n")
		}
		b.WriteString("\n")
	}

	section("Reading", k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End)
	section("Conversation", k.Refresh, k.Compose, k.Send, k.Blur, k.Copy, k.Export)
	section("General", k.Dismiss, k.Help, k.Quit)
	return b.String()
}
