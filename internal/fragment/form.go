// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fragment

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// =============================================================================
// FORM TYPES
// =============================================================================

// Field is one named control of a form.
type Field struct {
	Name     string
	Value    string // default value as rendered
	Type     string // input type, "textarea" or "select"
	Required bool
}

// Form is an HTML form as rendered by the server.
type Form struct {
	Action string // raw action attribute, relative to the page URL
	Method string // upper-case, GET when absent
	Fields []Field
}

// FieldError describes one field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects every failed field of one validation.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d invalid fields: %s", len(e), strings.Join(msgs, "; "))
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Form returns the first form matched by sel. If sel matches an element
// inside a form, the enclosing form is used.
func (d *Document) Form(sel Selector) (*Form, bool) {
	if d == nil {
		return nil, false
	}
	n := sel.first(d.root)
	for n != nil && !(n.Type == html.ElementNode && n.DataAtom == atom.Form) {
		n = n.Parent
	}
	if n == nil {
		return nil, false
	}

	f := &Form{Method: http.MethodGet}
	if v, ok := attr(n, "action"); ok {
		f.Action = strings.TrimSpace(v)
	}
	if v, ok := attr(n, "method"); ok && strings.TrimSpace(v) != "" {
		f.Method = strings.ToUpper(strings.TrimSpace(v))
	}

	walk(n, func(c *html.Node) bool {
		if c.Type != html.ElementNode {
			return true
		}
		if field, ok := readField(c); ok {
			f.Fields = append(f.Fields, field)
		}
		return true
	})
	return f, true
}

func readField(n *html.Node) (Field, bool) {
	name, ok := attr(n, "name")
	if !ok || name == "" {
		return Field{}, false
	}
	if _, disabled := attr(n, "disabled"); disabled {
		return Field{}, false
	}
	_, required := attr(n, "required")

	switch n.DataAtom {
	case atom.Input:
		typ, _ := attr(n, "type")
		typ = strings.ToLower(typ)
		if typ == "" {
			typ = "text"
		}
		switch typ {
		case "submit", "button", "reset", "image", "file":
			return Field{}, false
		case "checkbox", "radio":
			if _, checked := attr(n, "checked"); !checked {
				return Field{}, false
			}
		}
		value, _ := attr(n, "value")
		return Field{Name: name, Value: value, Type: typ, Required: required}, true

	case atom.Textarea:
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return Field{Name: name, Value: b.String(), Type: "textarea", Required: required}, true

	case atom.Select:
		return Field{Name: name, Value: selectedOption(n), Type: "select", Required: required}, true
	}
	return Field{}, false
}

func selectedOption(sel *html.Node) string {
	var first, chosen *html.Node
	walk(sel, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Option {
			return true
		}
		if first == nil {
			first = n
		}
		if _, ok := attr(n, "selected"); ok {
			chosen = n
			return false
		}
		return true
	})
	if chosen == nil {
		chosen = first
	}
	if chosen == nil {
		return ""
	}
	if v, ok := attr(chosen, "value"); ok {
		return v
	}
	return cleanText(chosen)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Field returns the named field.
func (f *Form) Field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Values merges the rendered defaults with overrides. Override keys that are
// not fields of the form are ignored.
func (f *Form) Values(overrides map[string]string) url.Values {
	v := url.Values{}
	for _, fd := range f.Fields {
		val := fd.Value
		if o, ok := overrides[fd.Name]; ok {
			val = o
		}
		v.Add(fd.Name, val)
	}
	return v
}

// Validate checks values against the form's required fields.
// Returns FieldErrors listing every blank required field, or nil.
func (f *Form) Validate(values url.Values) error {
	var errs FieldErrors
	for _, fd := range f.Fields {
		if !fd.Required {
			continue
		}
		if strings.TrimSpace(values.Get(fd.Name)) == "" {
			errs = append(errs, FieldError{Field: fd.Name, Message: "is required"})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Resolve returns the absolute action URL against the page URL.
func (f *Form) Resolve(page *url.URL) (*url.URL, error) {
	if page == nil {
		return nil, fmt.Errorf("resolve form action: no page url")
	}
	if f.Action == "" {
		return page, nil
	}
	ref, err := url.Parse(f.Action)
	if err != nil {
		return nil, fmt.Errorf("resolve form action %q: %w", f.Action, err)
	}
	return page.ResolveReference(ref), nil
}
