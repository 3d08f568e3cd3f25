// Package cache provides a small bounded in-memory cache keyed by a
// content hash of the inputs that produced a value. Spectrum and order
// map computations are deterministic in their parameters, so repeated
// lookups with the same parameters can skip the computation entirely.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Key derives a stable identifier from an arbitrary sequence of
// parameter values. Identical sequences always produce identical keys,
// and any change in value, order, or type changes the key.
func Key(parts ...any) string {
	h := sha256.New()
	var buf [8]byte
	for _, p := range parts {
		switch v := p.(type) {
		case int:
			h.Write([]byte{'i'})
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		case float64:
			h.Write([]byte{'f'})
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		case bool:
			if v {
				h.Write([]byte{'b', 1})
			} else {
				h.Write([]byte{'b', 0})
			}
		case string:
			h.Write([]byte{'s'})
			binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
			h.Write(buf[:])
			h.Write([]byte(v))
		case []float64:
			h.Write([]byte{'F'})
			binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
			h.Write(buf[:])
			for _, f := range v {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
				h.Write(buf[:])
			}
		default:
			fmt.Fprintf(h, "v%T:%v", p, p)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Cache is a fixed-capacity map with first-in first-out eviction. It is
// safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]any
	order    []string
	capacity int
}

// New creates a cache holding at most capacity entries. A non-positive
// capacity yields an unbounded cache.
func New(capacity int) *Cache {
	return &Cache{
		entries:  make(map[string]any),
		capacity: capacity,
	}
}

// Get returns the value stored under key, if present.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key, evicting the oldest entry when the cache
// is full. Overwriting an existing key does not change its age.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		if c.capacity > 0 && len(c.order) >= c.capacity {
			oldest := c.order[0]
			// Shift down in place so evicted keys do not pin the
			// backing array.
			copy(c.order, c.order[1:])
			c.order = c.order[:len(c.order)-1]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = value
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge discards all entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	c.order = c.order[:0]
}
