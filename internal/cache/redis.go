package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront_back_end/internal/logging"
)

// Cache wraps Redis for read-through caching, rate limit counters, token
// revocation and checkout idempotency. A nil *Cache behaves as an always-empty cache.
type Cache struct {
	rdb redis.Cmdable
}

func New(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

// --- Token blacklist (revocation before expiry) ---

func (c *Cache) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

func (c *Cache) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	if c == nil || tokenID == "" {
		return false
	}
	exists, err := c.rdb.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		logging.L().Warn("⚠️ Blacklist check failed", zap.Error(err))
		return false
	}
	return exists > 0
}

// --- Rate limiting ---

// Hit increments the counter for key and (re)arms its window. It returns the new count.
func (c *Cache) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c == nil {
		return 0, nil
	}
	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Count returns the current counter value, zero when absent.
func (c *Cache) Count(ctx context.Context, key string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	val, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Cooldown reports the remaining cooldown on key.
func (c *Cache) Cooldown(ctx context.Context, key string) (time.Duration, bool) {
	if c == nil {
		return 0, false
	}
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func (c *Cache) StartCooldown(ctx context.Context, key string, d time.Duration) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, key, "1", d).Err()
}

func (c *Cache) Reset(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// --- Checkout idempotency ---

const idempotencyPending = "pending"

// ErrIdempotencyUnknown means the key is taken but its state could not be read.
var ErrIdempotencyUnknown = errors.New("idempotency key state unknown")

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf("idem:checkout:%s:%s", userID, key)
}

// ClaimIdempotencyKey reserves key for the user. When the key was already used it
// returns the stored result ("pending" while the first request is still running).
func (c *Cache) ClaimIdempotencyKey(ctx context.Context, userID, key string, ttl time.Duration) (previous string, claimed bool, err error) {
	if c == nil {
		return "", true, nil
	}
	k := idempotencyKey(userID, key)
	ok, err := c.rdb.SetNX(ctx, k, idempotencyPending, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	previous, err = c.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrIdempotencyUnknown, err)
	}
	return previous, false, nil
}

// CompleteIdempotencyKey records the result for replays.
func (c *Cache) CompleteIdempotencyKey(ctx context.Context, userID, key, result string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, idempotencyKey(userID, key), result, ttl).Err()
}

// ReleaseIdempotencyKey frees the key after a failed attempt so it can be retried.
func (c *Cache) ReleaseIdempotencyKey(ctx context.Context, userID, key string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, idempotencyKey(userID, key)).Err()
}

// IsPending reports whether a previous result is still the in-flight marker.
func IsPending(result string) bool {
	return result == idempotencyPending
}
