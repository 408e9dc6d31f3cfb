package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache. Expired entries are dropped lazily on
// read and by an occasional sweep on write.
type MemoryCache struct {
	gcTime time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	writes  int
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns a cache that evicts entries gcTime after they were
// stored.
func NewMemoryCache(gcTime time.Duration) *MemoryCache {
	return &MemoryCache{gcTime: gcTime, now: time.Now, entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if c.now().Sub(e.StoredAt) >= c.gcTime {
		delete(c.entries, key)
		return nil, ErrMiss
	}
	return &e, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = Entry{Value: value, StoredAt: now}
	c.writes++
	if c.writes%256 == 0 {
		for k, e := range c.entries {
			if now.Sub(e.StoredAt) >= c.gcTime {
				delete(c.entries, k)
			}
		}
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error { return nil }
