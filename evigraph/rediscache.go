package evigraph

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is an optional write-through cache in front of a Manager's
// file-backed store: Get is tried before reading the scope file from disk,
// and Set runs alongside persist on every mutation. It exists for
// deployments that share one evidence-graph cacheDir across multiple
// processes and want a faster, centralized read path than the filesystem
// alone provides; a Manager with no cache attached behaves exactly as
// before.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // default "evigraph:"
	TTL      time.Duration // default 0 (no expiration)
}

// NewRedisCache opens a connection pool to addr; it does not verify
// reachability until the first Get/Set call.
func NewRedisCache(opts RedisCacheOptions) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "evigraph:"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: opts.TTL}
}

func (c *RedisCache) key(scope string) string {
	return fmt.Sprintf("%sscope:%s", c.prefix, scope)
}

// Get returns the raw JSON document for scope, if present.
func (c *RedisCache) Get(ctx context.Context, scope string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(scope)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("evigraph: redis get %s: %w", scope, err)
	}
	return data, true, nil
}

// Set writes the raw JSON document for scope.
func (c *RedisCache) Set(ctx context.Context, scope string, data []byte) error {
	if err := c.client.Set(ctx, c.key(scope), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("evigraph: redis set %s: %w", scope, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// WithRedisCache attaches a write-through cache to m. Safe to call once,
// immediately after GetManager; subsequent loads prefer the cache over the
// on-disk file, and every persist writes through to both.
func (m *Manager) WithRedisCache(cache *RedisCache) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = cache
	return m
}
