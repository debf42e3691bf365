// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fragment

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jeranaias/chatwatch/internal/model"
)

// Fragment is one selected region of a document, typically the
// chat-messages container. It has no identity beyond its content.
type Fragment struct {
	node *html.Node
}

// FromHTML rebuilds a fragment from inner HTML previously returned by
// InnerHTML, wrapping it in a <div>.
func FromHTML(inner string) (*Fragment, error) {
	wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(inner), wrapper)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return &Fragment{node: wrapper}, nil
}

// InnerHTML renders the children of the region.
func (f *Fragment) InnerHTML() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	for c := f.node.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on writer errors, which strings.Builder never returns.
		_ = html.Render(&b, c)
	}
	return b.String()
}

// Text returns the normalised text content of the region.
func (f *Fragment) Text() string {
	if f == nil {
		return ""
	}
	return cleanText(f.node)
}

// Classes returns the CSS classes of the region element.
func (f *Fragment) Classes() []string {
	if f == nil {
		return nil
	}
	return classes(f.node)
}

// Entries extracts the message entries inside the region in document order.
func (f *Fragment) Entries(sel EntrySelectors) model.Transcript {
	if f == nil {
		return nil
	}
	nodes := sel.Entry.all(f.node)
	entries := make(model.Transcript, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, sel.extract(n))
	}
	return entries
}
