// Package pagecache is a versioned Redis cache for fetched pages. Writes bump a
// global version so every cached page is invalidated at once.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	versionKey = "lib:ver"
	keyPrefix  = "lib:v"
)

// Cache fails open: any Redis error is logged and treated as a miss.
type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	shortTO time.Duration
	log     zerolog.Logger
}

// New returns a cache over rdb. A nil client or non-positive ttl disables it.
func New(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, shortTO: 150 * time.Millisecond, log: log}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil && c.ttl > 0 }

// Key hashes the parts into a fixed-width key fragment.
func Key(parts ...string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "\x1f")), 16)
}

// Version is the cache generation a lookup ran against. The zero value is "unknown"
// and stores nothing.
type Version int64

func (c *Cache) version(ctx context.Context) (Version, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	return Version(v), err
}

func (c *Cache) key(ver Version, scope, key string) string {
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, ver, scope, key)
}

// Get decodes the cached value for scope/key into dst. It reports false on a miss
// or on any failure. The returned version must be read before the backing query
// runs and handed to SetAt, so a Bump during the query leaves the result under the
// old generation.
func (c *Cache) Get(ctx context.Context, scope, key string, dst any) (Version, bool) {
	if !c.Enabled() {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	ver, err := c.version(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache version read failed; bypassing")
		return 0, false
	}
	b, err := c.rdb.Get(ctx, c.key(ver, scope, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("scope", scope).Msg("cache get failed; bypassing")
		}
		return ver, false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache entry undecodable; bypassing")
		return ver, false
	}
	return ver, true
}

// SetAt stores v under generation ver with the cache TTL.
func (c *Cache) SetAt(ctx context.Context, ver Version, scope, key string, v any) {
	if !c.Enabled() || ver == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	if err := c.rdb.SetEx(ctx, c.key(ver, scope, key), b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Msg("cache set failed")
	}
}

// Bump invalidates every cached page. Call it after a successful write.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	// first bump moves from the implicit version 1 to 2
	if err := c.rdb.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
		return fmt.Errorf("bump version failed: %w", err)
	}
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("bump version failed: %w", err)
	}
	return nil
}
