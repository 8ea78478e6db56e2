package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "picklebookie:geocode:"

// CachedGeocoder memoizes successful lookups in Redis. A nil client disables caching.
type CachedGeocoder struct {
	next Geocoder
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedGeocoder wraps next with a Redis cache
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl}
}

// CacheKey returns the Redis key for address
func CacheKey(address string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode returns the cached result when present, otherwise calls through
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	if c.rdb == nil {
		return c.next.Geocode(ctx, address)
	}

	key := CacheKey(address)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		log.Warn().Str("key", key).Msg("Discarding malformed geocode cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Msg("Geocode cache read failed")
	}

	result, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("Geocode cache write failed")
		}
	}
	return result, nil
}
