// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textnorm normalizes user-typed text before it is sent as a query.
//
// Mobile keyboards may emit decomposed accents (e + combining acute) while the
// backend stores composed ones, so a search for "Électronique" could miss.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query returns s composed to NFC, trimmed, with inner whitespace runs collapsed.
func Query(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
