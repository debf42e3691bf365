// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat page's messages to a file.
//
// # Key Types
//
//   - Document: the messages of one page plus where and when they were read
//   - Exporter: renders a Document in one format
//   - Options: output directory, metadata, timestamps and HTML theme
//
// # Supported Formats
//
//   - markdown: frontmatter plus one section per message
//   - html: standalone page with embedded CSS
//   - json: the Document as indented JSON
//   - text: the same lines the tail command prints
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", opts)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(doc, exp, opts)
package export
