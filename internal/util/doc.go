// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chatwatch.
//
// # Key Functions
//
// String Utilities:
//   - Truncate: display-width aware truncation with ellipsis
//   - CollapseSpace: folds runs of whitespace into single spaces
//   - PadRight: pads to a display width
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	line := util.Truncate(entry.Body, width)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
