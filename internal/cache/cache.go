// Package cache is a Redis read-through layer for quote prices and the
// listings catalog. Every failure degrades to a cache miss; callers always
// have the upstream or the database behind it.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/models"
)

const (
	quoteKeyPrefix = "quote:"
	listingsKey    = "listings:all"
	listingsTTL    = 24 * time.Hour
)

// Cache wraps the Redis client.
type Cache struct {
	rdb      *redis.Client
	quoteTTL time.Duration
}

// New creates a Cache from configuration and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb, quoteTTL: cfg.QuoteTTL}, nil
}

// GetQuote returns a cached quote price and whether it was present.
func (c *Cache) GetQuote(ctx context.Context, symbol string) (float64, bool) {
	val, err := c.rdb.Get(ctx, quoteKeyPrefix+symbol).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		logger.Warn(ctx, "quote cache read failed", "symbol", symbol, "error", err)
		return 0, false
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		logger.Warn(ctx, "malformed cached quote", "symbol", symbol, "value", val)
		return 0, false
	}
	return price, true
}

// SetQuote stores a quote price under the configured TTL. Zero prices are the
// unavailable sentinel and are never cached.
func (c *Cache) SetQuote(ctx context.Context, symbol string, price float64) {
	if price == 0 {
		return
	}
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.rdb.Set(ctx, quoteKeyPrefix+symbol, val, c.quoteTTL).Err(); err != nil {
		logger.Warn(ctx, "quote cache write failed", "symbol", symbol, "error", err)
	}
}

// GetListings returns the cached listings catalog and whether it was present.
func (c *Cache) GetListings(ctx context.Context) ([]*models.Listing, bool) {
	val, err := c.rdb.Get(ctx, listingsKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn(ctx, "listings cache read failed", "error", err)
		return nil, false
	}
	var listings []*models.Listing
	if err := json.Unmarshal(val, &listings); err != nil {
		logger.Warn(ctx, "malformed cached listings", "error", err)
		return nil, false
	}
	return listings, true
}

// SetListings stores the listings catalog.
func (c *Cache) SetListings(ctx context.Context, listings []*models.Listing) {
	data, err := json.Marshal(listings)
	if err != nil {
		logger.Warn(ctx, "failed to marshal listings for cache", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, listingsKey, data, listingsTTL).Err(); err != nil {
		logger.Warn(ctx, "listings cache write failed", "error", err)
	}
}

// InvalidateListings drops the cached catalog, forcing a database reload.
func (c *Cache) InvalidateListings(ctx context.Context) {
	if err := c.rdb.Del(ctx, listingsKey).Err(); err != nil {
		logger.Warn(ctx, "failed to invalidate listings cache", "error", err)
	}
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
