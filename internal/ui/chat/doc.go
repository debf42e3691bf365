// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat view of chatwatch.

The Bubble Tea event loop is the UI thread. A refresh.Refresher runs its
cycles in the background and hands every step that touches the view to a
Bridge, which delivers it as a DispatchMsg; Update runs the closure and then
reacts to whatever the refresher reported through its hooks.

# Layout

	header      page title and URL
	viewport    the live message region (components.ChatViewport)
	toasts      flash messages, overlaid at the bottom right
	compose     single-line message box
	status bar  live/stale/error, last refresh, key hints

# Keys

	up/down pgup/pgdn home/end   scroll
	ctrl+r                       refresh now
	tab                          focus or leave the compose box
	enter                        send (while composing)
	y                            copy the last message
	e                            save the conversation as Markdown
	?                            help
	q, ctrl+c                    quit
*/
package chat
