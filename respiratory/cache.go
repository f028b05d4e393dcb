package respiratory

// Bounded LRU cache for classification results, keyed by a fingerprint of
// the raw upload bytes. The cache is the only mutable state shared between
// concurrent requests; a single mutex guards the map and the recency list.
//
// Concurrent misses for the same fingerprint may both run the compute
// function; the second store wins. Deduplicating in-flight computation is
// deliberately out of scope given the sub-second inference budget.

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultCacheSize is the default maximum entry count.
const DefaultCacheSize = 128

// Fingerprint returns the deterministic cache key for a raw audio payload:
// the SHA-256 hex digest of its bytes.
func Fingerprint(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

type cacheEntry struct {
	fingerprint string
	result      *ClassificationResult
}

// PredictionCache memoizes classifier output with LRU eviction.
type PredictionCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	hits   uint64
	misses uint64
}

// NewPredictionCache creates a cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultCacheSize.
func NewPredictionCache(capacity int) *PredictionCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &PredictionCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached result for a fingerprint, marking it most recently
// used.
func (c *PredictionCache) Get(fingerprint string) (*ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[fingerprint]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(element)
	c.hits++
	return element.Value.(*cacheEntry).result, true
}

// Set stores a result, evicting the least-recently-used entry when the
// cache is at capacity. At most one entry exists per fingerprint.
func (c *PredictionCache) Set(fingerprint string, result *ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[fingerprint]; ok {
		element.Value.(*cacheEntry).result = result
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).fingerprint)
		}
	}

	c.entries[fingerprint] = c.order.PushFront(&cacheEntry{
		fingerprint: fingerprint,
		result:      result,
	})
}

// GetOrCompute returns the cached result for a fingerprint, or invokes
// compute and stores its result on a miss. Errors are never cached.
func (c *PredictionCache) GetOrCompute(fingerprint string, compute func() (*ClassificationResult, error)) (*ClassificationResult, bool, error) {
	if result, ok := c.Get(fingerprint); ok {
		return result, true, nil
	}

	result, err := compute()
	if err != nil {
		return nil, false, err
	}

	c.Set(fingerprint, result)
	return result, false, nil
}

// Len returns the current entry count.
func (c *PredictionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the lifetime hit and miss counts.
func (c *PredictionCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
