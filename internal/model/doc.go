// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures read out of a rendered chat page.
//
// # Key Types
//
//   - Entry: one chat message as rendered by the server (author, body, time)
//   - Transcript: the ordered entries of one chat-messages fragment
//   - Flash: a one-shot server notice (success, danger, warning, info)
//
// # Usage
//
//	entries := frag.Entries(sel)
//	t := model.Transcript(entries)
//	if last, ok := t.Last(); ok {
//	    fmt.Println(last.Author, last.Body)
//	}
package model
