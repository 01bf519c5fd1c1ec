// Package redisx implements the response cache on Redis.
//
// Only the ResponseStore lives here: cached raw responses are a natural
// key-value workload and an instance with persistence enabled satisfies the
// durability the cache needs. Records and selections stay in the row store.
package redisx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leaksift/internal/core"
)

const responseKeyPrefix = "response:"

// ResponseStore caches raw responses in Redis, keyed by a SHA-256 of the
// query text so arbitrary query strings make safe keys.
type ResponseStore struct {
	client *redis.Client
	ttl    time.Duration // 0 means entries never expire
}

// NewResponseStore creates a Redis-backed response cache. A zero ttl keeps
// entries forever, matching the row-store backends.
func NewResponseStore(client *redis.Client, ttl time.Duration) *ResponseStore {
	return &ResponseStore{client: client, ttl: ttl}
}

func (s *ResponseStore) key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return responseKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached raw response for query, or core.ErrNotFound.
func (s *ResponseStore) Get(ctx context.Context, query string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Put stores raw under query. SetNX keeps the first stored response; cached
// responses are immutable once written.
func (s *ResponseStore) Put(ctx context.Context, query string, raw []byte) error {
	if err := s.client.SetNX(ctx, s.key(query), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
