// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cart keeps the agent's view of the signed-in user's cart.

The backend owns the cart. Every mutation sends the user's intent and then
replaces the local lines with the cart the backend answers with; quantities
and prices are never computed locally.

Architecture:

  - Synchronizer: Load, mutations and synchronous queries over the last
    committed cart.
  - Staleness marker: Every load and mutation takes a marker from a monotonic
    counter. A response is committed only while its marker is the latest one
    issued, so a slow early request never overwrites a later result.
  - Line locks: Mutations of one product or line run one at a time; different
    lines still race.
  - Handler: The agent's /cart endpoints.
*/
package cart

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/catalog"
	"github.com/taibuivan/shopie/pkg/slice"
)

// # Cart Model

// Line is one server-tracked entry of the cart.
//
// Quantity is always at least 1; a line at zero does not exist.
type Line struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantite"`
}

// Subtotal is price times quantity, for display only.
func (line Line) Subtotal() float64 {
	return line.Product.Price * float64(line.Quantity)
}

// State is a committed snapshot of the cart.
type State struct {
	Items        []Line `json:"items"`
	Loading      bool   `json:"loading"`
	LastSyncedAt uint64 `json:"lastSyncedAt"`
}

// Total sums the snapshot's subtotals.
func (state State) Total() float64 {
	return total(state.Items)
}

func total(lines []Line) float64 {
	return slice.Reduce(lines, 0.0, func(sum float64, line Line) float64 {
		return sum + line.Subtotal()
	})
}

// # Wire Format

// errNotACart marks a JSON object without an items list, such as a created line.
var errNotACart = errors.New("cart_answer_without_items")

// decodeLines accepts either {"items": [...]} or a bare array of lines. An
// empty payload is an empty cart.
func decodeLines(payload json.RawMessage) ([]Line, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return []Line{}, nil
	}

	if bytes.HasPrefix(trimmed, []byte("[")) {
		lines, err := backend.Decode[[]Line](payload)
		if err != nil {
			return nil, err
		}
		return normalise(lines), nil
	}

	fields, err := backend.Decode[map[string]json.RawMessage](payload)
	if err != nil {
		return nil, err
	}
	raw, ok := fields["items"]
	if !ok {
		return nil, errNotACart
	}

	lines, err := backend.Decode[[]Line](raw)
	if err != nil {
		return nil, err
	}
	return normalise(lines), nil
}

// normalise drops lines the backend reports at zero and never returns nil.
func normalise(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}
