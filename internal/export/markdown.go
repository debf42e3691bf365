// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports a page's messages to Markdown.
type MarkdownExporter struct {
	options *Options
	now     func() time.Time
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts, now: time.Now}
}

// Export converts a Document to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(doc.Name()))
		fmt.Fprintf(&sb, "url: %s\n", escapeYAML(doc.URL))
		fmt.Fprintf(&sb, "fetched: %s\n", doc.FetchedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(doc.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", e.now().Format(time.RFC3339))
		sb.WriteString("generator: chatwatch\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(strings.Join(strings.Fields(doc.Name()), " ")))

	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "- **Page**: <%s>\n", doc.URL)
		fmt.Fprintf(&sb, "- **Fetched**: %s\n", formatTimestamp(doc.FetchedAt))
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(doc.Messages))
		sb.WriteString("\n---\n\n")
	}

	if len(doc.Messages) == 0 {
		sb.WriteString("*No messages yet.*\n")
	}
	for _, msg := range doc.Messages {
		label := escapeMarkdown(authorLabel(msg))
		if e.options.IncludeTimestamps && msg.Time != "" {
			fmt.Fprintf(&sb, "**%s** <sub>%s</sub>\n\n", label, escapeMarkdown(msg.Time))
		} else {
			fmt.Fprintf(&sb, "**%s**\n\n", label)
		}
		sb.WriteString(quote(msg.Body))
		sb.WriteString("\n\n")
	}

	if len(doc.Flashes) > 0 {
		sb.WriteString("## Notices\n\n")
		for _, f := range doc.Flashes {
			fmt.Fprintf(&sb, "- *%s*: %s\n", f.Kind, escapeMarkdown(f.Text))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "*Exported by chatwatch on %s*\n", e.now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// quote renders a message body as a blockquote.
func quote(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ">"
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// escapeMarkdown escapes characters that break headings and emphasis.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"<", `\<`,
	)
	return r.Replace(s)
}

// escapeYAML quotes values that would break the frontmatter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
