package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/execution"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/pkg/logger"
)

// TargetProvider exposes the latest target portfolio
type TargetProvider interface {
	Target() contracts.TargetPortfolio
}

// Controller reacts to universe membership changes
// ⭐ SSOT: 멤버십 변경 → 차이 계산 → 주문 스케줄 조율은 여기서만
type Controller struct {
	targets   TargetProvider
	holdings  contracts.HoldingsProvider
	differ    *portfolio.Differ
	scheduler *execution.Scheduler
	sink      contracts.OrderSink
	logger    *logger.Logger
}

// RebalanceResult is the outcome of one membership-change notification
type RebalanceResult struct {
	AsOf     time.Time                   `json:"as_of"`
	Changes  contracts.MembershipChanges `json:"changes"`
	Holdings []contracts.Symbol          `json:"holdings"`
	Target   contracts.TargetPortfolio   `json:"target"`
	Diff     portfolio.Diff              `json:"diff"`
	Orders   []contracts.PendingOrder    `json:"orders"`
	Duration time.Duration               `json:"duration"`
}

// NewController creates a new controller
func NewController(
	targets TargetProvider,
	holdings contracts.HoldingsProvider,
	differ *portfolio.Differ,
	scheduler *execution.Scheduler,
	sink contracts.OrderSink,
	logger *logger.Logger,
) *Controller {
	return &Controller{
		targets:   targets,
		holdings:  holdings,
		differ:    differ,
		scheduler: scheduler,
		sink:      sink,
		logger:    logger,
	}
}

// OnMembershipChanged diffs holdings against the target and dispatches the orders
// An empty change set is a no-op and returns nil. Collaborator errors are not retried.
// A dispatch error still returns the result: the orders count as handed off.
func (c *Controller) OnMembershipChanged(
	ctx context.Context,
	asOf time.Time,
	changes contracts.MembershipChanges,
	members map[contracts.Symbol]contracts.SecurityHandle,
) (*RebalanceResult, error) {
	if changes.IsEmpty() {
		return nil, nil
	}

	startTime := time.Now()

	holdings, err := c.holdings.Holdings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get holdings: %w", err)
	}

	target := c.targets.Target()
	diff := c.differ.Diff(holdings, target.Symbols)
	orders := c.scheduler.Schedule(asOf, diff, target.Count(), members)

	result := &RebalanceResult{
		AsOf:     asOf,
		Changes:  changes,
		Holdings: holdings,
		Target:   target,
		Diff:     diff,
		Orders:   orders,
	}

	// 전달 이후는 fire-and-forget: 일부 sink 실패도 결과와 함께 반환
	if len(orders) > 0 {
		if err := c.sink.Dispatch(ctx, orders); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("dispatch orders: %w", err)
		}
	}

	result.Duration = time.Since(startTime)

	c.logger.WithFields(map[string]interface{}{
		"added":    len(changes.Added),
		"removed":  len(changes.Removed),
		"holdings": len(holdings),
		"target":   target.Count(),
		"orders":   len(orders),
		"duration": result.Duration,
	}).Info("Membership change handled")

	return result, nil
}
