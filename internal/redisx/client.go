package redisx

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Cache bundles the key conventions above behind typed helpers.
// Redis is never the source of truth; callers treat every error as a miss.
type Cache struct {
	RDB redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache { return &Cache{RDB: rdb} }

func (c *Cache) OrderStatus(ctx context.Context, orderID string) ([]byte, bool) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (c *Cache) SetOrderStatus(ctx context.Context, orderID string, body []byte) {
	_ = c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), body, TTLStatusCache).Err()
}

func (c *Cache) ForgetOrderStatus(ctx context.Context, orderID string) {
	_ = c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}

// Claim records value under (scope, key) unless the key was already claimed.
// It returns the previously stored value and false on a repeat.
// A key that expires between SETNX and GET is claimed again.
func (c *Cache) Claim(ctx context.Context, scope, key, value string) (string, bool, error) {
	k := fmt.Sprintf(KeyIdempotency, scope, key)
	for attempt := 0; attempt < claimAttempts; attempt++ {
		ok, err := c.RDB.SetNX(ctx, k, value, TTLIdempotency).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
		prev, err := c.RDB.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		return prev, false, err
	}
	return "", false, fmt.Errorf("claim %s: key keeps expiring", k)
}

// Complete overwrites a claimed key with the final result reference.
func (c *Cache) Complete(ctx context.Context, scope, key, value string) {
	_ = c.RDB.Set(ctx, fmt.Sprintf(KeyIdempotency, scope, key), value, TTLIdempotency).Err()
}

// Release drops a claim so the client can retry after a failure.
func (c *Cache) Release(ctx context.Context, scope, key string) {
	_ = c.RDB.Del(ctx, fmt.Sprintf(KeyIdempotency, scope, key)).Err()
}

func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.RDB.Set(ctx, fmt.Sprintf(KeyRevokedToken, jti), "1", ttl).Err()
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return Exists(ctx, c.RDB, fmt.Sprintf(KeyRevokedToken, jti))
}

// FirstSeen marks an event as processed for service and reports whether this is the first delivery.
func (c *Cache) FirstSeen(ctx context.Context, service, eventID string) (bool, error) {
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
}

// Unsee drops the dedup mark so a failed delivery can be processed again.
func (c *Cache) Unsee(ctx context.Context, service, eventID string) {
	_ = c.RDB.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
