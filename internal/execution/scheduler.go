package execution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Scheduler converts a portfolio diff into deferred orders
// ⭐ SSOT: 지연 주문 스케줄 정책은 여기서만
type Scheduler struct {
	calendar contracts.MarketCalendar
	config   SchedulerConfig
	logger   *logger.Logger
	now      func() time.Time
}

// SchedulerConfig defines order offsets and sizing
// SSOT: config/strategy/value_rebalance.yaml orders
type SchedulerConfig struct {
	SellOffsetMinutes int             // 장 시작 후 매도 (기본: 60)
	BuyOffsetMinutes  int             // 장 시작 후 매수 (기본: 90)
	BuyAllocation     decimal.Decimal // 총 매수 비중 (기본: 0.95, 나머지 현금)
}

// DefaultSchedulerConfig returns default configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SellOffsetMinutes: 60,
		BuyOffsetMinutes:  90,
		BuyAllocation:     decimal.RequireFromString("0.95"),
	}
}

// NewScheduler creates a new order scheduler
func NewScheduler(calendar contracts.MarketCalendar, config SchedulerConfig, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		calendar: calendar,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule creates one SELL per diff sell and one BUY per diff buy
// All orders target the first market open at or after asOf's midnight.
// Buys are sized BuyAllocation/targetSize each; targetSize <= 0 yields no buys.
// Symbols without a handle in members are skipped.
func (s *Scheduler) Schedule(
	asOf time.Time,
	diff portfolio.Diff,
	targetSize int,
	members map[contracts.Symbol]contracts.SecurityHandle,
) []contracts.PendingOrder {
	orders := make([]contracts.PendingOrder, 0, len(diff.Sell)+len(diff.Buy))
	skipped := make(map[string]int)
	midnight := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())

	// 1. 매도 먼저 (자금 확보)
	for _, symbol := range diff.Sell {
		handle, ok := members[symbol]
		if !ok {
			s.logger.WithField("symbol", symbol).Warn("No security handle for sell, skipped")
			skipped["missing_handle"]++
			continue
		}
		orders = append(orders, s.newOrder(handle, contracts.ActionSell, midnight, s.config.SellOffsetMinutes, decimal.Zero))
	}

	// 2. 매수 (0 나눗셈 방지)
	if targetSize <= 0 {
		if len(diff.Buy) > 0 {
			s.logger.WithFields(map[string]interface{}{
				"target_size": targetSize,
				"buys":        len(diff.Buy),
			}).Warn("Non-positive target size, buy orders skipped")
			skipped["non_positive_target_size"] += len(diff.Buy)
		}
	} else {
		fraction := s.config.BuyAllocation.Div(decimal.NewFromInt(int64(targetSize)))
		for _, symbol := range diff.Buy {
			handle, ok := members[symbol]
			if !ok {
				s.logger.WithField("symbol", symbol).Warn("No security handle for buy, skipped")
				skipped["missing_handle"]++
				continue
			}
			orders = append(orders, s.newOrder(handle, contracts.ActionBuy, midnight, s.config.BuyOffsetMinutes, fraction))
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_orders": len(orders),
		"sell_orders":  contracts.CountOrders(orders, contracts.ActionSell),
		"buy_orders":   contracts.CountOrders(orders, contracts.ActionBuy),
		"skipped":      skipped,
	}).Info("Orders scheduled")

	return orders
}

func (s *Scheduler) newOrder(
	handle contracts.SecurityHandle,
	action contracts.Action,
	from time.Time,
	offsetMinutes int,
	fraction decimal.Decimal,
) contracts.PendingOrder {
	open := s.calendar.NextMarketOpen(handle, from)
	triggerDate := time.Date(open.Year(), open.Month(), open.Day(), 0, 0, 0, 0, open.Location())

	return contracts.PendingOrder{
		ID:               uuid.New(),
		Symbol:           handle.Symbol,
		Handle:           handle,
		Action:           action,
		TriggerDate:      triggerDate,
		MinutesAfterOpen: offsetMinutes,
		TriggerAt:        open.Add(time.Duration(offsetMinutes) * time.Minute),
		SizingFraction:   fraction,
		CreatedAt:        s.now(),
	}
}
