package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/scheduler"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Ticker runs one rebalancing tick
type Ticker interface {
	RunTick(ctx context.Context, now time.Time) (*brain.TickResult, error)
}

// RebalanceJob drives the rebalancing engine on a cron schedule
// ⭐ SSOT: 리밸런싱 틱 스케줄은 이 Job에서만
type RebalanceJob struct {
	ticker   Ticker
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewRebalanceJob creates a new rebalance job
func NewRebalanceJob(ticker Ticker, schedule string, log *logger.Logger) *RebalanceJob {
	return &RebalanceJob{
		ticker:   ticker,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance_tick"
}

// Schedule returns the cron schedule (with seconds)
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// Run executes one tick at the current time
func (j *RebalanceJob) Run(ctx context.Context) error {
	result, err := j.ticker.RunTick(ctx, j.now())
	if errors.Is(err, brain.ErrTickInProgress) {
		// 다른 프로세스가 처리 중, 재시도 불필요
		return scheduler.Permanent(err)
	}
	if err != nil {
		return fmt.Errorf("rebalance tick: %w", err)
	}

	if result.Tick.Rebalancing {
		fields := map[string]interface{}{
			"date":   result.Tick.RebalanceDate.Format("2006-01-02"),
			"target": len(result.Target),
		}
		if result.Rebalance != nil {
			fields["orders"] = len(result.Rebalance.Orders)
		}
		j.logger.WithFields(fields).Info("Scheduled rebalance completed")
	}

	return nil
}
