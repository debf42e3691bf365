// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fragment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidSelector wraps selector compilation failures.
	ErrInvalidSelector = errors.New("invalid selector")
)

// =============================================================================
// SELECTOR
// =============================================================================

// Selector is a compiled CSS selector. The zero value matches nothing.
type Selector struct {
	raw string
	sel cascadia.Selector
}

// Compile compiles a CSS selector such as ".chat-messages".
func Compile(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("%w: empty", ErrInvalidSelector)
	}
	sel, err := cascadia.Compile(s)
	if err != nil {
		return Selector{}, fmt.Errorf("%w %q: %v", ErrInvalidSelector, s, err)
	}
	return Selector{raw: s, sel: sel}, nil
}

// MustCompile is like Compile but panics on error.
// Use it only for selectors that are known to be valid.
func MustCompile(s string) Selector {
	sel, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// String returns the selector source.
func (s Selector) String() string {
	return s.raw
}

// IsZero reports whether the selector was never compiled.
func (s Selector) IsZero() bool {
	return s.sel == nil
}

func (s Selector) first(n *html.Node) *html.Node {
	if s.sel == nil || n == nil {
		return nil
	}
	return s.sel.MatchFirst(n)
}

func (s Selector) all(n *html.Node) []*html.Node {
	if s.sel == nil || n == nil {
		return nil
	}
	return s.sel.MatchAll(n)
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
// The HTML5 parser is lenient; an error means the reader itself failed.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseBytes parses an in-memory HTML document.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Find returns the first region matching sel, or nil when absent.
func (d *Document) Find(sel Selector) *Fragment {
	if d == nil {
		return nil
	}
	n := sel.first(d.root)
	if n == nil {
		return nil
	}
	return &Fragment{node: n}
}

// Title returns the text of the document's <title>, if any.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	var title string
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = cleanText(n)
			return false
		}
		return true
	})
	return title
}

// walk visits n and its descendants in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func classes(n *html.Node) []string {
	v, _ := attr(n, "class")
	return strings.Fields(v)
}
