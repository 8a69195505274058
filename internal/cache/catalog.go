package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storefront_back_end/internal/logging"
)

const (
	KeyCategories = "catalog:categories"
	KeyHome       = "catalog:home"

	CatalogTTL = 10 * time.Minute
)

// CatalogKeys are invalidated together whenever products or categories change.
var CatalogKeys = []string{KeyCategories, KeyHome}

// GetJSON decodes the cached value into dst. It reports a miss on any error.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON stores v encoded as JSON. Failures are logged, not returned.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.L().Warn("⚠️ Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		logging.L().Warn("⚠️ Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys, logging failures.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.Reset(ctx, keys...); err != nil {
		logging.L().Warn("⚠️ Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Remember returns the cached value for key, or loads, stores and returns it.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.SetJSON(ctx, key, v, ttl)
	return v, nil
}
