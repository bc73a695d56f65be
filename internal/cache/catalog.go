// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go provides a Valkey-backed cache for catalog API responses.
// Browsing the catalog is by far the most common operation, so the
// serialized category list and per-category service listings are stored
// in Valkey and invalidated whenever the catalog is mutated.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog responses.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL is how long a cached catalog response stays valid.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache manages cached catalog API responses in Valkey.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body for a catalog key. Returns false on miss.
func (cc *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := cc.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("catalog cache hit", "key", key)
	return val, true
}

// Set stores a serialized response body for a catalog key with the configured TTL.
func (cc *CatalogCache) Set(ctx context.Context, key string, body []byte) {
	if err := cc.client.Set(ctx, catalogKeyPrefix+key, body, cc.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// InvalidateCategory removes the cached service listing for one category.
func (cc *CatalogCache) InvalidateCategory(ctx context.Context, id string) {
	if err := cc.client.Del(ctx, catalogKeyPrefix+CategoryKey(id)).Err(); err != nil {
		slog.Warn("catalog cache invalidate error", "category", id, "error", err)
	}
	slog.Debug("catalog cache invalidated", "category", id)
}

// InvalidateCategoryList removes the cached category list.
func (cc *CatalogCache) InvalidateCategoryList(ctx context.Context) {
	if err := cc.client.Del(ctx, catalogKeyPrefix+CategoryListKey()).Err(); err != nil {
		slog.Warn("catalog cache invalidate error", "key", CategoryListKey(), "error", err)
	}
}

// InvalidateAll removes all cached catalog responses by scanning for the
// prefix. Used after category deletions, since a deletion can touch the
// category list plus any number of service listings at once.
func (cc *CatalogCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache fully cleared", "deleted", deleted)
	}
}

// CategoryListKey returns the cache key for the full category list.
func CategoryListKey() string {
	return "_categories"
}

// CategoryKey returns the cache key for one category's service listing.
func CategoryKey(id string) string {
	return "category:" + id
}
