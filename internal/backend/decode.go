// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"encoding/json"
	"fmt"

	"github.com/taibuivan/shopie/internal/platform/apperr"
)

// Decode unmarshals a backend payload into T.
//
// A nil payload yields the zero value. A payload that does not fit T is a
// malformed response and is reported as NETWORK_ERROR, like any other answer
// the agent cannot use.
func Decode[T any](payload json.RawMessage) (T, error) {
	var out T
	if len(payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, apperr.Network(fmt.Errorf("backend_decode_failed: %w", err))
	}
	return out, nil
}
