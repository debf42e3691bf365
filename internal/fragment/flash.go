// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fragment

import (
	"strings"

	"github.com/jeranaias/chatwatch/internal/model"
)

// Flashes returns the flash messages matched by sel, e.g. ".alert".
// The category is read from an "alert-<kind>" class.
func (d *Document) Flashes(sel Selector) []model.Flash {
	if d == nil {
		return nil
	}
	var flashes []model.Flash
	for _, n := range sel.all(d.root) {
		text := cleanText(n)
		if text == "" {
			continue
		}
		kind := model.FlashInfo
		for _, c := range classes(n) {
			if strings.HasPrefix(c, "alert-") && c != "alert-dismissible" {
				kind = model.ParseFlashKind(c)
				break
			}
		}
		flashes = append(flashes, model.Flash{Kind: kind, Text: text})
	}
	return flashes
}
