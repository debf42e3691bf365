// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwatch/internal/model"
)

func sampleDocument() *Document {
	return &Document{
		Title:     "Turma A",
		URL:       "http://localhost:5000/student/chat",
		FetchedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Messages: model.Transcript{
			{Author: "Prof. Ana", Body: "Bom dia!", Time: "09:01"},
			{Body: "Bom dia, professora", Time: "09:02", Mine: true},
		},
		Flashes: []model.Flash{{Kind: model.FlashSuccess, Text: "Mensagem enviada"}},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"markdown", ".md"},
		{"MD", ".md"},
		{"html", ".html"},
		{"json", ".json"},
		{" text ", ".txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := ForFormat(tt.name, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
		})
	}

	_, err := ForFormat("pdf", nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.Contains(t, err.Error(), "markdown")
}

func TestExport_RejectsIncompleteDocument(t *testing.T) {
	for _, name := range Formats() {
		exp, err := ForFormat(name, nil)
		require.NoError(t, err)

		_, err = exp.Export(nil)
		assert.Error(t, err, name)
		_, err = exp.Export(&Document{URL: "http://x/chat"})
		assert.Error(t, err, "%s without fetch time", name)
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Turma A\n"))
	assert.Contains(t, md, "url: \"http://localhost:5000/student/chat\"")
	assert.Contains(t, md, "messages: 2")
	assert.Contains(t, md, "**Prof. Ana** <sub>09:01</sub>\n\n> Bom dia!")
	assert.Contains(t, md, "**You** <sub>09:02</sub>")
	assert.Contains(t, md, "- *success*: Mensagem enviada")
}

func TestMarkdownExporter_NoMetadataOrTimestamps(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---\n"))
	assert.NotContains(t, md, "<sub>")
	assert.Contains(t, md, "**Prof. Ana**\n\n> Bom dia!")
}

func TestMarkdownExporter_EscapesTitleInFrontmatter(t *testing.T) {
	doc := sampleDocument()
	doc.Title = "Chat\ninjected: yes"

	out, err := NewMarkdownExporter(nil).Export(doc)
	require.NoError(t, err)

	for _, line := range strings.Split(string(out), "\n") {
		assert.False(t, strings.HasPrefix(line, "injected:"), "title newline leaked into the output")
	}
	assert.Contains(t, string(out), "# Chat injected: yes\n")
}

func TestHTMLExporter_EscapesPageText(t *testing.T) {
	doc := sampleDocument()
	doc.Messages = append(doc.Messages, model.Entry{
		Author: "<b>Eve</b>",
		Body:   "<script>alert('x')</script>",
	})

	out, err := NewHTMLExporter(nil).Export(doc)
	require.NoError(t, err)
	page := string(out)

	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, page, `<div class="message mine">`)
	assert.Contains(t, page, `class="flash flash-success"`)
	assert.Contains(t, page, `<body class="dark-theme">`)
}

func TestHTMLExporter_Theme(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(sampleDocument())
	require.NoError(t, err)
	assert.Contains(t, string(out), `<body class="light-theme">`)

	out, err = NewHTMLExporter(&Options{Theme: "neon"}).Export(sampleDocument())
	require.NoError(t, err)
	assert.Contains(t, string(out), `<body class="dark-theme">`)
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleDocument())
	require.NoError(t, err)

	var got Document
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "Turma A", got.Title)
	require.Len(t, got.Messages, 2)
	assert.True(t, got.Messages[1].Mine)
}

func TestTextExporter(t *testing.T) {
	out, err := NewTextExporter(&Options{IncludeTimestamps: true}).Export(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t,
		"[09:01] Prof. Ana: Bom dia!\n[09:02] You: Bom dia, professora\n* Mensagem enviada\n",
		string(out))
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleDocument(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "chat_Turma_A_20250314_093000.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Bom dia!")
}

func TestExportToFile_UntitledUsesURL(t *testing.T) {
	doc := sampleDocument()
	doc.Title = ""
	opts := &Options{OutputDir: t.TempDir()}

	path, err := ExportToFile(doc, NewTextExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, "chat_chat_20250314_093000.txt", filepath.Base(path))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":          "chat",
		"a/b:c":     "a-b-c",
		"two words": "two_words",
		"tab\there": "tab_here",
		"bell\x07":  "bell-",
	}
	tests[strings.Repeat("x", 80)] = strings.Repeat("x", 50)
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
