package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

type CacheEntry struct {
	Data      json.RawMessage
	ExpiresAt time.Time
}

// QueryCache holds encoded query results. Any successful mutation clears it,
// so entries only ever outlive their TTL when nothing is written. Clear bumps
// the generation; results read before a Clear are never stored after it.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	gen     uint64
	ttl     time.Duration
	maxSize int
	stop    chan struct{}
	once    sync.Once
}

func NewQueryCache(ttl time.Duration, maxSize int) *QueryCache {
	cache := &QueryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func (c *QueryCache) Key(procedure string, input []byte) string {
	h := sha256.New()
	h.Write([]byte(procedure))
	h.Write([]byte{0})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *QueryCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}

	return entry.Data, true
}

// Generation identifies the current cache contents. Take it before running a
// query and pass it to SetIfCurrent.
func (c *QueryCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *QueryCache) Set(key string, data json.RawMessage) {
	c.SetIfCurrent(key, data, c.Generation())
}

// SetIfCurrent stores data unless the cache was cleared since gen was taken.
func (c *QueryCache) SetIfCurrent(key string, data json.RawMessage, gen uint64) bool {
	if c.maxSize <= 0 || c.ttl <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	return true
}

func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.gen++
}

func (c *QueryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *QueryCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background cleanup.
func (c *QueryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}
