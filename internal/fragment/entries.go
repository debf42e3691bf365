// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fragment

import (
	"golang.org/x/net/html"

	"github.com/jeranaias/chatwatch/internal/model"
)

// EntrySelectors describe how message entries are laid out inside the
// chat-messages region.
type EntrySelectors struct {
	Entry  Selector // one element per message
	Author Selector // sender name inside an entry
	Time   Selector // rendered timestamp inside an entry
	Body   Selector // message text inside an entry

	// MineClasses mark entries sent by the viewing user.
	MineClasses []string
}

// DefaultEntrySelectors returns the layout used by the classroom chat pages.
func DefaultEntrySelectors() EntrySelectors {
	return EntrySelectors{
		Entry:       MustCompile(".message"),
		Author:      MustCompile(".message-sender"),
		Time:        MustCompile(".message-time"),
		Body:        MustCompile(".message-content"),
		MineClasses: []string{"sent", "message-sent", "own"},
	}
}

// CompileEntrySelectors builds EntrySelectors from raw selector strings.
// Empty author, time or body selectors are allowed and leave that field blank
// (body falls back to the whole entry text).
func CompileEntrySelectors(entry, author, tm, body string, mine []string) (EntrySelectors, error) {
	var (
		s   EntrySelectors
		err error
	)
	if s.Entry, err = Compile(entry); err != nil {
		return EntrySelectors{}, err
	}
	for _, opt := range []struct {
		raw string
		dst *Selector
	}{
		{author, &s.Author},
		{tm, &s.Time},
		{body, &s.Body},
	} {
		if opt.raw == "" {
			continue
		}
		if *opt.dst, err = Compile(opt.raw); err != nil {
			return EntrySelectors{}, err
		}
	}
	s.MineClasses = mine
	return s, nil
}

func (s EntrySelectors) extract(n *html.Node) model.Entry {
	e := model.Entry{Classes: classes(n)}

	if a := s.Author.first(n); a != nil {
		e.Author = cleanText(a)
	}
	if t := s.Time.first(n); t != nil {
		e.Time = cleanText(t)
	}
	if b := s.Body.first(n); b != nil {
		e.Body = cleanText(b)
	} else {
		e.Body = cleanText(n)
	}

	for _, c := range s.MineClasses {
		if e.HasClass(c) {
			e.Mine = true
			break
		}
	}
	return e
}
