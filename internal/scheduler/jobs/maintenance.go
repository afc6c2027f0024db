package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/rebalancer/pkg/logger"
	"github.com/wonny/rebalancer/pkg/redis"
)

// CacheCleanupJob drops cached order listings so the API re-reads them
type CacheCleanupJob struct {
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache *redis.Cache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every day at 00:05)
func (j *CacheCleanupJob) Schedule() string {
	return "0 5 0 * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	start := time.Now()
	if err := j.cache.DeletePattern(ctx, redis.OrdersKeyPattern()); err != nil {
		return fmt.Errorf("clean order cache: %w", err)
	}

	j.logger.WithField("duration", time.Since(start)).Info("Cache cleanup completed")
	return nil
}
