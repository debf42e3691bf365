// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a single message entry of a chat-messages fragment.
// Entries carry no identity of their own; the server renders them in order
// and the whole list is replaced on every refresh.
type Entry struct {
	// Author is the sender's display name, empty when the page omits it.
	Author string `json:"author,omitempty"`

	// Body is the message text with whitespace collapsed.
	Body string `json:"body"`

	// Time is the timestamp exactly as rendered (e.g. "14:05" or "ontem").
	Time string `json:"time,omitempty"`

	// Mine is true for entries the viewing user sent.
	Mine bool `json:"mine,omitempty"`

	// Classes are the CSS classes of the entry element.
	Classes []string `json:"classes,omitempty"`
}

// HasClass reports whether the entry element carried the given CSS class.
func (e Entry) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Equal compares the rendered content of two entries.
func (e Entry) Equal(other Entry) bool {
	return e.Author == other.Author &&
		e.Body == other.Body &&
		e.Time == other.Time &&
		e.Mine == other.Mine
}

// String renders the entry as a single plain-text line.
func (e Entry) String() string {
	var b strings.Builder
	if e.Time != "" {
		b.WriteString("[")
		b.WriteString(e.Time)
		b.WriteString("] ")
	}
	switch {
	case e.Mine:
		b.WriteString("You: ")
	case e.Author != "":
		b.WriteString(e.Author)
		b.WriteString(": ")
	}
	b.WriteString(e.Body)
	return b.String()
}

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered list of entries in one fragment.
type Transcript []Entry

// Last returns the newest entry.
func (t Transcript) Last() (Entry, bool) {
	if len(t) == 0 {
		return Entry{}, false
	}
	return t[len(t)-1], true
}


// CommonPrefix returns how many leading entries t and other share.
func (t Transcript) CommonPrefix(other Transcript) int {
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if !t[i].Equal(other[i]) {
			return i
		}
	}
	return n
}

// Equal reports whether both transcripts render the same entries.
func (t Transcript) Equal(other Transcript) bool {
	return len(t) == len(other) && t.CommonPrefix(other) == len(t)
}
