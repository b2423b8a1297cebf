// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"strconv"
	"sync"
)

// lineLocks hands out one mutex per key. Entries are dropped once nobody
// holds or waits on them, so the map only ever covers lines being mutated.
type lineLocks struct {
	mu   sync.Mutex
	held map[string]*lineLock
}

type lineLock struct {
	sync.Mutex
	refs int
}

// lock blocks until key is free and returns the matching unlock.
func (locks *lineLocks) lock(key string) func() {
	locks.mu.Lock()
	if locks.held == nil {
		locks.held = map[string]*lineLock{}
	}
	entry, ok := locks.held[key]
	if !ok {
		entry = &lineLock{}
		locks.held[key] = entry
	}
	entry.refs++
	locks.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		locks.mu.Lock()
		defer locks.mu.Unlock()
		entry.refs--
		if entry.refs == 0 {
			delete(locks.held, key)
		}
	}
}

// Products are always locked before lines.

func productKey(productID int64) string {
	return "product:" + strconv.FormatInt(productID, 10)
}

func lineKey(lineID int64) string {
	return "line:" + strconv.FormatInt(lineID, 10)
}
