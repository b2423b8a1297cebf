// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the persisted session in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	persisted *Persisted
	saves     int
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored session or [ErrNoSession].
func (store *MemoryStore) Load(_ context.Context) (Persisted, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.persisted == nil {
		return Persisted{}, ErrNoSession
	}
	return *store.persisted, nil
}

// Save replaces the stored session.
func (store *MemoryStore) Save(_ context.Context, persisted Persisted) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.persisted = &persisted
	store.saves++
	return nil
}

// Clear drops the stored session.
func (store *MemoryStore) Clear(_ context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.persisted = nil
	return nil
}

// Ping always succeeds.
func (store *MemoryStore) Ping(_ context.Context) error { return nil }

// Saves returns how many times Save was called.
func (store *MemoryStore) Saves() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saves
}
