// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
)

// TextExporter writes one line per message, as the tail command prints them.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain-text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a Document to plain text.
func (e *TextExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "%s\n%s (%d messages, fetched %s)\n\n",
			doc.Name(), doc.URL, len(doc.Messages), formatTimestamp(doc.FetchedAt))
	}
	for _, msg := range doc.Messages {
		if !e.options.IncludeTimestamps {
			msg.Time = ""
		}
		sb.WriteString(msg.String())
		sb.WriteString("\n")
	}
	for _, f := range doc.Flashes {
		fmt.Fprintf(&sb, "* %s\n", f.Text)
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
