// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI components of the chatwatch TUI.

ChatViewport (viewport.go) is the live message region. It implements
refresh.Container, so a refresher swaps its content and decides whether to
follow the bottom.

Header (header.go) and StatusBar (statusbar.go) frame the view; the status
bar shows whether the view is live, stale or failing and spins while a fetch
is in flight.

ToastManager (toast.go) turns the server's flash messages and local
validation errors into auto-dismissing toasts. Modal (modal.go) renders the
markdown help screen with glamour.
*/
package components
