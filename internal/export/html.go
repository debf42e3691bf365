// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports a page's messages to a standalone HTML file.
type HTMLExporter struct {
	options *Options
	now     func() time.Time
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts, now: time.Now}
}

// Export converts a Document to HTML. All page text is escaped; the
// server's markup is never copied into the output.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(doc.Name()))
	sb.WriteString("    <meta name=\"generator\" content=\"chatwatch\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", doc.FetchedAt.Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(doc))
	}

	sb.WriteString("        <main class=\"chat-messages\">\n")
	if len(doc.Messages) == 0 {
		sb.WriteString("            <p class=\"empty\">No messages yet.</p>\n")
	}
	for _, msg := range doc.Messages {
		class := "message"
		if msg.Mine {
			class += " mine"
		}
		fmt.Fprintf(&sb, "            <div class=\"%s\">\n", class)
		sb.WriteString("                <div class=\"message-header\">\n")
		fmt.Fprintf(&sb, "                    <span class=\"author\">%s</span>\n", html.EscapeString(authorLabel(msg)))
		if e.options.IncludeTimestamps && msg.Time != "" {
			fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", html.EscapeString(msg.Time))
		}
		sb.WriteString("                </div>\n")
		fmt.Fprintf(&sb, "                <div class=\"message-content\">%s</div>\n", formatBody(msg.Body))
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </main>\n")

	for _, f := range doc.Flashes {
		fmt.Fprintf(&sb, "        <div class=\"flash flash-%s\">%s</div>\n",
			html.EscapeString(string(f.Kind)), html.EscapeString(f.Text))
	}

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported by <strong>chatwatch</strong> on %s</p>\n",
		e.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderHeader(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(doc.Name()))
	sb.WriteString("            <div class=\"metadata\">\n")
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Page:</strong> %s</span>\n", html.EscapeString(doc.URL))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Fetched:</strong> %s</span>\n", formatTimestamp(doc.FetchedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(doc.Messages))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

// formatBody escapes a message body and keeps its line breaks.
func formatBody(body string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "<br>")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --mine-bg: #1f2335;
            --accent: #7aa2f7;
            --success: #9ece6a;
            --danger: #f7768e;
            --warning: #e0af68;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f5f5f7;
            --text-primary: #1d1d1f;
            --text-muted: #86868b;
            --border-color: #d2d2d7;
            --mine-bg: #e8f0fe;
            --accent: #0066cc;
            --success: #1e8e3e;
            --danger: #d93025;
            --warning: #b06000;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }

        .container { max-width: 820px; margin: 0 auto; padding: 32px 16px; }
        .header { border-bottom: 1px solid var(--border-color); padding-bottom: 16px; margin-bottom: 24px; }
        .header h1 { font-size: 1.6em; margin-bottom: 8px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; color: var(--text-muted); font-size: 0.9em; }

        .message {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 12px 16px;
            margin-bottom: 12px;
            max-width: 85%;
        }
        .message.mine { background: var(--mine-bg); margin-left: auto; border-color: var(--accent); }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 4px; }
        .author { font-weight: 600; color: var(--accent); }
        .timestamp { color: var(--text-muted); font-size: 0.85em; }
        .empty { color: var(--text-muted); font-style: italic; }

        .flash { border-left: 4px solid var(--accent); padding: 8px 12px; margin: 12px 0; }
        .flash-success { border-color: var(--success); }
        .flash-danger { border-color: var(--danger); }
        .flash-warning { border-color: var(--warning); }

        .footer { margin-top: 32px; color: var(--text-muted); font-size: 0.85em; text-align: center; }
    </style>
`
