// Package cache provides the client's in-memory response cache: a bounded
// LRU keyed by request fingerprint, with per-entry TTL expiry and validator
// (ETag) metadata for conditional follow-up requests.
package cache

import (
	"fmt"
	"time"
)

// Entry is a cached response body plus metadata.
type Entry struct {
	// Body is the raw response payload. The slice is owned by the cache;
	// callers must not modify it.
	Body []byte

	// Validator is the opaque entity tag the server returned for this
	// response, usable in an If-None-Match follow-up. May be empty.
	Validator string

	InsertedAt time.Time
	ExpiresAt  time.Time
}

// Cache maps request fingerprints to previously fetched response bodies.
// Implementations are safe for concurrent use and never hold their lock
// across a network call.
type Cache interface {
	// Get returns the entry for key if it is present and fresh. An expired
	// entry is removed during the call and reported as a miss. A hit marks
	// the entry as most recently used.
	Get(key string) (*Entry, bool)

	// Put inserts or replaces the entry for key. A ttl <= 0 means "use the
	// configured default TTL". If the cache is full and key is new, the
	// least recently used entry is evicted first.
	Put(key string, body []byte, validator string, ttl time.Duration)

	// Invalidate removes the entry for key. Removing an absent key is a
	// no-op, not an error.
	Invalidate(key string)

	// InvalidatePrefix removes every entry whose key starts with prefix.
	// Mutations use this to drop the list and item reads they staled.
	InvalidatePrefix(prefix string)

	// Clear removes all entries.
	Clear()

	// Len reports the number of entries currently held, including entries
	// that have expired but not yet been swept.
	Len() int
}

// New constructs a cache holding at most maxSize entries, each fresh for
// defaultTTL unless Put overrides it. maxSize == 0 disables caching
// entirely: every Get misses and every Put is a no-op. defaultTTL == 0
// keeps the code path uniform but makes every entry immediately stale.
// Negative values are configuration errors.
func New(maxSize int, defaultTTL time.Duration) (Cache, error) {
	if maxSize < 0 {
		return nil, fmt.Errorf("cache: max size must be >= 0, got %d", maxSize)
	}
	if defaultTTL < 0 {
		return nil, fmt.Errorf("cache: default TTL must be >= 0, got %s", defaultTTL)
	}
	if maxSize == 0 {
		return disabled{}, nil
	}
	return newLRU(maxSize, defaultTTL), nil
}

// disabled is the pass-through strategy selected at construction when
// maxSize is zero, so the hot path never re-checks configuration.
type disabled struct{}

func (disabled) Get(string) (*Entry, bool)                      { return nil, false }
func (disabled) Put(string, []byte, string, time.Duration)      {}
func (disabled) Invalidate(string)                              {}
func (disabled) InvalidatePrefix(string)                        {}
func (disabled) Clear()                                         {}
func (disabled) Len() int                                       { return 0 }
