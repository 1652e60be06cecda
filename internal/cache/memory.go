package cache

import (
	"context"
	"time"

	expirable "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-memory LRU cache implementing Store. It is used
// when Redis is not configured, and in tests.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore creates a new in-memory LRU store. The TTL is fixed at
// construction; the per-call ttl passed to Set is ignored, matching the
// expirable LRU's whole-cache expiry model.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, _ time.Duration) {
	s.lru.Add(key, payload)
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.lru.Remove(key)
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
