package execution

import (
	"context"
	"fmt"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/redis"
)

// CacheInvalidator drops cached order listings after new orders are scheduled
// Place it after the Repository in a MultiSink.
type CacheInvalidator struct {
	cache *redis.Cache
}

// NewCacheInvalidator creates an invalidating sink
func NewCacheInvalidator(cache *redis.Cache) *CacheInvalidator {
	return &CacheInvalidator{cache: cache}
}

// Dispatch implements contracts.OrderSink
func (c *CacheInvalidator) Dispatch(ctx context.Context, orders []contracts.PendingOrder) error {
	if len(orders) == 0 {
		return nil
	}
	if err := c.cache.DeletePattern(ctx, redis.OrdersKeyPattern()); err != nil {
		return fmt.Errorf("invalidate order cache: %w", err)
	}
	return nil
}
