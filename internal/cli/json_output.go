// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for --json.
//
// Every command that supports --json prints one JSONResponse on stdout.
// Human-readable notices go to stderr in that mode.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/chatwatch/internal/export"
	"github.com/jeranaias/chatwatch/internal/model"
)

// JSONResponse is the envelope printed by --json.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`

	// Error is the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response to stdout.
func (r *JSONResponse) Print() error {
	return r.Write(os.Stdout)
}

// Write writes the indented response to w.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the response as indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// StderrPrintln prints a line to stderr.
func StderrPrintln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// PageData is the JSON form of the once command.
type PageData struct {
	URL       string           `json:"url"`
	Title     string           `json:"title,omitempty"`
	Polled    bool             `json:"polled"`
	Messages  model.Transcript `json:"messages"`
	Flashes   []model.Flash    `json:"flashes,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`

	// ExportedTo is the file written by --export
	ExportedTo string `json:"exported_to,omitempty"`
}

// Document converts the page for the exporters.
func (p *PageData) Document() *export.Document {
	return &export.Document{
		Title:     p.Title,
		URL:       p.URL,
		FetchedAt: p.FetchedAt,
		Messages:  p.Messages,
		Flashes:   p.Flashes,
	}
}

// ConfigPathData is the JSON form of "config path".
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ConfigValueData is the JSON form of "config get" and "config set".
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}
