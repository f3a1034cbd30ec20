package probe

import (
	"sync"
	"time"
)

// Cache holds parsed results keyed by absolute path. An entry is valid
// while the file's modification time is not after the entry's probe time.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result   Result
	probedAt time.Time
}

// NewCache returns an empty cache. now supplies probe timestamps; nil means
// time.Now.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now, entries: make(map[string]cacheEntry)}
}

// Lookup returns the cached result for path if it was probed no earlier
// than mtime.
func (c *Cache) Lookup(path string, mtime time.Time) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || mtime.After(e.probedAt) {
		return Result{}, false
	}
	return e.result, true
}

// Store records r for path, stamped with the current clock time.
func (c *Cache) Store(path string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{result: r, probedAt: c.now()}
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
