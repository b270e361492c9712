// Package cache provides the time-boxed response cache that memoizes
// end-to-end answers at query-text granularity.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/vantor-labs/repliq/internal/domain"
)

// entry pairs a cached answer with the time it was stored
type entry struct {
	value    domain.AnswerResult
	storedAt time.Time
}

// ResponseCache memoizes successful answers keyed by normalized query text.
// It is a query-text cache, not a semantic one: two paraphrases of the same
// question are separate entries. Concurrent request goroutines share it, so
// all access goes through the mutex.
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewResponseCache creates a ResponseCache with the given entry lifetime
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key normalizes raw query text to its cache key
func Key(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached answer for a query. An entry older than the TTL is
// evicted on the spot and reported as a miss.
func (c *ResponseCache) Get(query string) (domain.AnswerResult, bool) {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.AnswerResult{}, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return domain.AnswerResult{}, false
	}
	return e.value, true
}

// Set stores an answer with the current timestamp, overwriting any prior
// entry for the same key. Callers only store successful, non-empty results;
// failures and empty matches are never cached.
func (c *ResponseCache) Set(query string, value domain.AnswerResult) {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Sweep removes every expired entry and returns how many were dropped.
// Correctness does not depend on it (Get revalidates lazily); it only
// bounds memory growth between cache hits.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops all entries
func (c *ResponseCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
