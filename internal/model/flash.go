// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// FlashKind is the category a server attached to a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashDanger  FlashKind = "danger"
	FlashWarning FlashKind = "warning"
	FlashInfo    FlashKind = "info"
)

// ParseFlashKind maps a category or CSS class suffix to a FlashKind.
// Unknown categories (including Flask's default "message") map to info.
func ParseFlashKind(s string) FlashKind {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "alert-")
	switch s {
	case "success":
		return FlashSuccess
	case "danger", "error":
		return FlashDanger
	case "warning":
		return FlashWarning
	default:
		return FlashInfo
	}
}

// Flash is a one-shot notice rendered by the server after an action.
type Flash struct {
	Kind FlashKind `json:"kind"`
	Text string    `json:"text"`
}
