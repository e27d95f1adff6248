package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const balanceTTL = 30 * time.Second

// BalanceCache provides a short-TTL read cache of profile balances backed by
// Redis. Key format: balance:<user_id>. Every balance mutation invalidates,
// so the TTL only bounds staleness for readers that race an invalidation.
type BalanceCache struct {
	client *redis.Client
}

// NewBalanceCache creates a BalanceCache wrapping the given Redis client.
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

// Get returns the cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("balance cache get: %w", err)
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// unreadable entry: treat as a miss and let the next Set repair it
		return 0, false, nil
	}
	return balance, true, nil
}

// Set stores the balance with the cache TTL.
func (c *BalanceCache) Set(ctx context.Context, userID string, balance int64) error {
	return c.client.Set(ctx, c.key(userID), strconv.FormatInt(balance, 10), balanceTTL).Err()
}

// Invalidate drops the cached balance after a mutation.
func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *BalanceCache) key(userID string) string {
	return "balance:" + userID
}
