// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
)

// ErrNoSession is returned by [Store.Load] when nothing is persisted.
var ErrNoSession = errors.New("session: nothing persisted")

// Persisted is the durable form of an authenticated session.
type Persisted struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store defines the persistence contract for the session.
//
// # Implementations
//
// [RedisStore] keeps the session across agent restarts; [MemoryStore] is used
// in tests and when SESSION_STORE=memory.
type Store interface {
	// Load returns the persisted session or [ErrNoSession].
	Load(ctx context.Context) (Persisted, error)

	// Save replaces the persisted session.
	Save(ctx context.Context, persisted Persisted) error

	// Clear removes the persisted session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
}
