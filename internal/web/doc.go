// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package web talks HTTP to the chat server.
//
// A Client holds a cookie jar carrying the user's session cookie. Fetch
// retrieves rendered pages (it satisfies refresh.Fetcher) and Submit posts the
// page's own chat form, following the server's redirect back to the chat.
package web
