package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"equiv/internal/logging"
)

// DefaultTTL bounds how long a container title is served before it is looked
// up again.
const DefaultTTL = 60 * time.Second

type item[V any] struct {
	value   V
	expires time.Time
}

// TTL is a concurrency-safe cache whose entries expire a fixed duration after
// they were stored. Loads for the same key are collapsed into one call.
type TTL[V any] struct {
	name    string
	ttl     time.Duration
	clock   Clock
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]item[V]
	group   singleflight.Group
}

// NewTTL creates a cache. A non-positive ttl falls back to DefaultTTL and a nil
// clock uses the wall clock.
func NewTTL[V any](name string, ttl time.Duration, clock Clock, logger *slog.Logger) *TTL[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TTL[V]{
		name:    name,
		ttl:     ttl,
		clock:   clock,
		logger:  logging.NewComponentLogger(logger, "cache").With(logging.String("cache", name)),
		entries: make(map[string]item[V]),
	}
}

// Get returns a live entry for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.clock.Now().Before(entry.expires) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key until the TTL elapses.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = item[V]{value: value, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Load errors are returned and not cached.
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	res, err, shared := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("load %s %q: %w", c.name, key, err)
	}
	if shared {
		c.logger.Debug("cache load shared", logging.String("key", key))
	}
	return res.(V), nil
}

// Purge drops expired entries and returns how many were removed.
func (c *TTL[V]) Purge() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("purged expired cache entries", logging.Int("removed", removed), logging.Int("remaining", len(c.entries)))
	}
	return removed
}

// Len counts stored entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
