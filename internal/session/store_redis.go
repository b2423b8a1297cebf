// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/shopie/internal/platform/constants"
	redisstore "github.com/taibuivan/shopie/internal/platform/redis"
)

// RedisStore persists the session in Redis under one key per device.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed [Store].
//
// # Parameters
//   - client: Connected Redis client.
//   - deviceID: Distinguishes agents sharing one Redis instance.
//   - ttl: Expiry of the persisted entry; zero keeps it until logout.
func NewRedisStore(client *redis.Client, deviceID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    constants.RedisPrefixSession + deviceID,
		ttl:    ttl,
	}
}

/*
Load retrieves the persisted session.

Returns:
  - Persisted: The stored token and user
  - error: ErrNoSession when absent, a decode error when corrupt, or connectivity errors
*/
func (store *RedisStore) Load(ctx context.Context) (Persisted, error) {
	raw, err := store.client.Get(ctx, store.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Persisted{}, ErrNoSession
		}
		return Persisted{}, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var persisted Persisted
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return Persisted{}, fmt.Errorf("redis_session_decode_failed: %w", err)
	}

	return persisted, nil
}

/*
Save writes the session with the configured TTL.
*/
func (store *RedisStore) Save(ctx context.Context, persisted Persisted) error {
	raw, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, store.key, raw, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	return nil
}

/*
Clear removes the session key.
*/
func (store *RedisStore) Clear(ctx context.Context) error {
	if err := store.client.Del(ctx, store.key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (store *RedisStore) Ping(ctx context.Context) error {
	return redisstore.Ping(ctx, store.client)
}
