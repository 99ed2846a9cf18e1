package gtcr

import (
	"sync"
	"time"
)

// schemaCache holds the most recently resolved meta evidence pair for a
// bounded time.
type schemaCache struct {
	mu        sync.RWMutex
	entry     *MetaEvidencePair
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newSchemaCache(ttl time.Duration) *schemaCache {
	return &schemaCache{ttl: ttl, now: time.Now}
}

func (c *schemaCache) get() (*MetaEvidencePair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.entry, true
}

func (c *schemaCache) set(p *MetaEvidencePair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = p
	c.expiresAt = c.now().Add(c.ttl)
}

func (c *schemaCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
