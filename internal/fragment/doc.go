// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fragment parses rendered chat pages and selects regions of them.
//
// A page is parsed once into a Document. Regions are located with CSS
// selectors compiled by cascadia; the chat-messages region is returned as a
// Fragment whose inner HTML and message entries can be read out.
//
// # Usage
//
//	doc, err := fragment.Parse(resp.Body)
//	if err != nil {
//	    return err
//	}
//	frag := doc.Find(fragment.MustCompile(".chat-messages"))
//	if frag == nil {
//	    return errors.New("page has no chat region")
//	}
//	for _, e := range frag.Entries(fragment.DefaultEntrySelectors()) {
//	    fmt.Println(e)
//	}
//
// The package also reads the page's flash messages (Document.Flashes) and its
// chat form (Document.Form), including client-side required-field validation.
package fragment
