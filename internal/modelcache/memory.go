package modelcache

import "sync"

// MemoryCache is an in-process ModelCache, mostly useful in tests and for
// single-run invocations with caching disabled on disk.
type MemoryCache struct {
	entries map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Get implements core.ModelCache.
func (c *MemoryCache) Get(name string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blob, ok := c.entries[name]
	return blob, ok, nil
}

// Put implements core.ModelCache.
func (c *MemoryCache) Put(name string, blob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = blob
	return nil
}

// Len returns the number of cached models.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
