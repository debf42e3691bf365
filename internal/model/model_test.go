// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestEntry_String(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"full", Entry{Author: "Ana", Body: "oi", Time: "10:02"}, "[10:02] Ana: oi"},
		{"mine", Entry{Author: "Prof", Body: "hello", Mine: true}, "You: hello"},
		{"bare", Entry{Body: "just text"}, "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntry_HasClass(t *testing.T) {
	e := Entry{Classes: []string{"message", "sent"}}
	if !e.HasClass("sent") {
		t.Error("expected class sent")
	}
	if e.HasClass("received") {
		t.Error("unexpected class received")
	}
}

func TestTranscript_CommonPrefix(t *testing.T) {
	a := Entry{Body: "A"}
	b := Entry{Body: "B"}
	c := Entry{Body: "C"}

	tests := []struct {
		name string
		x, y Transcript
		want int
	}{
		{"both empty", nil, nil, 0},
		{"append", Transcript{a, b}, Transcript{a, b, c}, 2},
		{"diverge", Transcript{a, b}, Transcript{a, c}, 1},
		{"disjoint", Transcript{b}, Transcript{c}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.CommonPrefix(tt.y); got != tt.want {
				t.Errorf("CommonPrefix = %d, want %d", got, tt.want)
			}
		})
	}

	if !(Transcript{a, b}).Equal(Transcript{a, b}) {
		t.Error("identical transcripts should be equal")
	}
	if (Transcript{a, b}).Equal(Transcript{a, b, c}) {
		t.Error("different lengths should not be equal")
	}
}

func TestTranscript_Last(t *testing.T) {
	var empty Transcript
	if _, ok := empty.Last(); ok {
		t.Error("Last on empty transcript should report false")
	}

	tr := Transcript{
		{Body: "from student"},
		{Body: "reply", Mine: true},
	}
	last, ok := tr.Last()
	if !ok || last.Body != "reply" {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

func TestParseFlashKind(t *testing.T) {
	tests := map[string]FlashKind{
		"success":       FlashSuccess,
		"alert-danger":  FlashDanger,
		"error":         FlashDanger,
		"WARNING":       FlashWarning,
		"message":       FlashInfo,
		"":              FlashInfo,
		" alert-info ":  FlashInfo,
	}
	for in, want := range tests {
		if got := ParseFlashKind(in); got != want {
			t.Errorf("ParseFlashKind(%q) = %q, want %q", in, got, want)
		}
	}
}
