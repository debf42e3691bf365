// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/chatwatch/internal/model"
	"github.com/jeranaias/chatwatch/internal/util"
)

// ErrUnknownFormat is returned by ForFormat for names it does not know.
var ErrUnknownFormat = errors.New("unknown export format")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is what gets exported: the entries of one chat-messages fragment
// and the page they were read from.
type Document struct {
	Title     string           `json:"title,omitempty"`
	URL       string           `json:"url"`
	FetchedAt time.Time        `json:"fetched_at"`
	Messages  model.Transcript `json:"messages"`
	Flashes   []model.Flash    `json:"flashes,omitempty"`
}

// Name is the title, or the URL for untitled pages.
func (d *Document) Name() string {
	if d.Title != "" {
		return d.Title
	}
	return d.URL
}

func (d *Document) validate() error {
	if d == nil {
		return errors.New("document is nil")
	}
	if d.URL == "" {
		return errors.New("document has no URL")
	}
	if d.FetchedAt.IsZero() {
		return errors.New("document has no fetch time")
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a Document in one format.
type Exporter interface {
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the extension including the dot (".md").
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory files are written to. Default: "."
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds the page URL, fetch time and message count.
	IncludeMetadata bool

	// IncludeTimestamps prints each message's rendered time.
	IncludeTimestamps bool

	// Theme for HTML export, "light" or "dark".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

var formats = map[string]func(*Options) Exporter{
	"markdown": func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"md":       func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"html":     func(o *Options) Exporter { return NewHTMLExporter(o) },
	"json":     func(o *Options) Exporter { return NewJSONExporter(o) },
	"text":     func(o *Options) Exporter { return NewTextExporter(o) },
	"txt":      func(o *Options) Exporter { return NewTextExporter(o) },
}

// Formats lists the accepted format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter for a format name such as "md" or "html".
func ForFormat(name string, opts *Options) (Exporter, error) {
	ctor, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return ctor(opts), nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders doc and writes it under opts.OutputDir.
// The file is named after the page and the fetch time; the path is returned.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(pageSlug(doc)),
		doc.FetchedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file exists either way.
			fmt.Fprintf(os.Stderr, "Warning: Could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pageSlug prefers the title; otherwise the last path segment of the URL.
func pageSlug(doc *Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	u := strings.TrimRight(doc.URL, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 && i < len(u)-1 {
		return u[i+1:]
	}
	return "chat"
}

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "chat"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// authorLabel is the sender as shown in exports.
func authorLabel(e model.Entry) string {
	switch {
	case e.Mine:
		return "You"
	case e.Author != "":
		return e.Author
	default:
		return "Unknown"
	}
}
