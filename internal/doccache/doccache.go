// Package doccache is a Redis read-through cache in front of a meta-evidence
// document fetcher. Documents are content-addressed, so entries only expire
// to bound memory use.
package doccache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultPrefix = "tcr:doc:"
	defaultTTL    = 24 * time.Hour
)

// Cache wraps a gtcr.DocumentFetcher. It implements gtcr.DocumentFetcher.
type Cache struct {
	next   gtcr.DocumentFetcher
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// Option is a functional option for configuring a Cache.
type Option func(*Cache)

// WithTTL sets how long documents are kept. 0 keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a Cache storing documents in rdb and reading misses from next.
func New(rdb redis.Cmdable, next gtcr.DocumentFetcher, opts ...Option) *Cache {
	c := &Cache{
		next:   next,
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) key(uri string) string { return c.prefix + uri }

// Fetch implements gtcr.DocumentFetcher. Redis failures are logged and the
// document is fetched from the next fetcher instead.
func (c *Cache) Fetch(ctx context.Context, uri string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.key(uri)).Bytes()
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("document cache read failed", zap.String("uri", uri), zap.Error(err))
	}

	data, err = c.next.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, c.key(uri), data, c.ttl).Err(); err != nil {
		c.logger.Warn("document cache write failed", zap.String("uri", uri), zap.Error(err))
	}
	return data, nil
}

// Invalidate removes uri from the cache.
func (c *Cache) Invalidate(ctx context.Context, uri string) error {
	if err := c.rdb.Del(ctx, c.key(uri)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", uri, err)
	}
	return nil
}
