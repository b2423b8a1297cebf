// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer handles the optional fields of request and backend payloads.

Optional JSON values (price bounds in a catalog query, a new password in an
account edit, an image URL on a product) are modelled as pointers so that
"absent" and "zero" stay distinct.
*/
package pointer

// To returns a pointer to v, e.g. for an optional filter parsed from a query string.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, or returns the zero value when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback dereferences p, or returns fallback when p is nil.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
