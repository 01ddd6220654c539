package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
)

const keyPrefix = "fundlens:analysis:"

// Cache is the optional fast layer in front of the relational result
// cache. A nil *Cache is valid and behaves as a permanent miss.
type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewCacheFromEnv connects using REDIS_ADDR. An unset address disables
// the layer and returns (nil, nil).
func NewCacheFromEnv(baseLog *logger.Logger) (*Cache, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		baseLog.Info("REDIS_ADDR not set, redis result cache disabled")
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{
		log: baseLog.With("client", "RedisCache"),
		rdb: rdb,
	}, nil
}

// Get returns the cached payload for a key, or false on any miss or
// transport error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("redis get failed", "error", err, "key", key)
		}
		return nil, false
	}
	return raw, true
}

// Set stores a payload with a TTL. Failures are logged and swallowed;
// the relational cache remains authoritative.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if c == nil || c.rdb == nil || ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		c.log.Warn("redis set failed", "error", err, "key", key)
	}
}

// Delete drops the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	if err := c.rdb.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warn("redis delete failed", "error", err, "keys", len(keys))
	}
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
