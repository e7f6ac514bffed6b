package amelia

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

// Cache is a short-TTL Redis cache for GET responses, keyed by
// resource+params. It exists to absorb rapid view toggling; a broken cache
// must never break a fetch, so every failure here degrades to a miss.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a response cache. A nil redis client yields a nil cache,
// which every method tolerates.
func NewCache(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if redisClient == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{redis: redisClient, ttl: ttl, logger: logger}
}

func (c *Cache) key(k string) string {
	return fmt.Sprintf("agenda:cache:%s", k)
}

// Get returns the cached response body for key, if present and fresh.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Debug("cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

// Set stores a response body. Write failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, data []byte) {
	if c == nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}
