package s1_universe

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/selection"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Exclusion reasons recorded for coarse rejections
const (
	ReasonMarket       = "market"
	ReasonDollarVolume = "dollar_volume"
	ReasonPrice        = "price"
)

// Filter is the two-stage universe filter
// ⭐ SSOT: 리밸런싱 날짜 큐와 목표 포트폴리오 캐시는 여기서만 보관
// Not safe for concurrent use; the caller serializes ticks.
type Filter struct {
	config   Config
	screener *selection.Screener
	ranker   *selection.Ranker
	logger   *logger.Logger

	remaining []time.Time
	target    contracts.TargetPortfolio
	updatedAt time.Time

	lastUniverse *contracts.Universe
	lastScreen   *selection.ScreenResult
	lastRanking  []contracts.RankedSymbol
}

// Config holds the coarse screen criteria
type Config struct {
	StrategyID      string
	Market          string          // 기준 시장 (예: usa)
	MinDollarVolume decimal.Decimal // 거래대금 하한 (초과만 통과)
	MinPrice        decimal.Decimal // 가격 하한 (초과만 통과)
}

// DefaultConfig returns default coarse criteria
func DefaultConfig() Config {
	return Config{
		StrategyID:      "value_rebalance_us",
		Market:          "usa",
		MinDollarVolume: decimal.NewFromInt(1_000_000),
		MinPrice:        decimal.NewFromInt(5),
	}
}

// NewFilter creates a filter over the given rebalance dates
func NewFilter(config Config, dates []time.Time, screener *selection.Screener, ranker *selection.Ranker, log *logger.Logger) *Filter {
	return &Filter{
		config:    config,
		screener:  screener,
		ranker:    ranker,
		logger:    log.WithComponent("universe_filter"),
		remaining: slices.Clone(dates),
		target:    contracts.TargetPortfolio{Symbols: []contracts.Symbol{}},
	}
}

// IsDue reports whether EvaluateCoarse at now would consume a rebalance date
func (f *Filter) IsDue(now time.Time) bool {
	return len(f.remaining) > 0 && now.After(f.remaining[0])
}

// EvaluateCoarse decides whether now is a rebalancing event and narrows candidates
// At most one date is consumed per call. Without an event the cached target is returned.
func (f *Filter) EvaluateCoarse(now time.Time, candidates []contracts.SecurityDescriptor) (contracts.Tick, []contracts.Symbol) {
	tick := contracts.NewTick(now)

	if !f.IsDue(now) {
		return tick, f.cachedSymbols()
	}

	tick.RebalanceDate = f.remaining[0]
	tick.Rebalancing = true
	tick.PlacingOrders = true
	f.remaining = f.remaining[1:]
	f.updatedAt = now

	universe := &contracts.Universe{
		Date:       tick.RebalanceDate,
		Symbols:    make([]contracts.Symbol, 0),
		Excluded:   make(map[contracts.Symbol]string),
		TotalCount: len(candidates),
	}

	reasons := make(map[string]int)
	for _, candidate := range candidates {
		if reason := f.checkExclusion(candidate); reason != "" {
			universe.Excluded[candidate.Symbol] = reason
			reasons[reason]++
			continue
		}
		universe.Symbols = append(universe.Symbols, candidate.Symbol)
	}
	f.lastUniverse = universe

	f.logger.WithFields(map[string]interface{}{
		"rebalance_date":  tick.RebalanceDate.Format("2006-01-02"),
		"total_input":     len(candidates),
		"passed":          universe.Count(),
		"filters":         reasons,
		"remaining_dates": len(f.remaining),
	}).Info("Coarse selection completed")

	return tick, slices.Clone(universe.Symbols)
}

// EvaluateFine turns fundamentals into the new target portfolio
// Outside a rebalancing tick it returns the cached target untouched.
func (f *Filter) EvaluateFine(tick contracts.Tick, records []contracts.FundamentalRecord) []contracts.Symbol {
	if !tick.Rebalancing {
		return f.cachedSymbols()
	}

	screen := f.screener.Screen(records)
	ranked := f.ranker.Rank(screen.Passed)

	f.lastScreen = &screen
	f.lastRanking = ranked
	f.target = contracts.TargetPortfolio{
		Date:    tick.RebalanceDate,
		Symbols: contracts.RankedSymbols(ranked),
	}
	f.updatedAt = tick.Time

	f.logger.WithFields(map[string]interface{}{
		"rebalance_date": tick.RebalanceDate.Format("2006-01-02"),
		"target_size":    f.target.Count(),
		"target":         f.target.Symbols,
	}).Info("Target portfolio updated")

	return f.cachedSymbols()
}

// checkExclusion returns the exclusion reason, empty when the candidate passes
func (f *Filter) checkExclusion(candidate contracts.SecurityDescriptor) string {
	if !strings.EqualFold(candidate.Market, f.config.Market) {
		return ReasonMarket
	}

	if !candidate.DollarVolume.GreaterThan(f.config.MinDollarVolume) {
		return ReasonDollarVolume
	}

	if !candidate.Price.GreaterThan(f.config.MinPrice) {
		return ReasonPrice
	}

	return ""
}

func (f *Filter) cachedSymbols() []contracts.Symbol {
	return slices.Clone(f.target.Symbols)
}

// Unwind puts back the date consumed by tick
// Used when the fine stage of a rebalancing tick cannot run; the next tick fires the event again.
func (f *Filter) Unwind(tick contracts.Tick) {
	if !tick.Rebalancing {
		return
	}
	if len(f.remaining) > 0 && !f.remaining[0].After(tick.RebalanceDate) {
		return
	}

	f.remaining = append([]time.Time{tick.RebalanceDate}, f.remaining...)

	f.logger.WithField("rebalance_date", tick.RebalanceDate.Format("2006-01-02")).Warn("Rebalancing tick unwound")
}

// Target returns a copy of the cached target portfolio
func (f *Filter) Target() contracts.TargetPortfolio {
	return f.target.Clone()
}

// RemainingDates returns the rebalance dates not yet consumed
func (f *Filter) RemainingDates() []time.Time {
	return slices.Clone(f.remaining)
}

// LastUniverse returns the most recent coarse result, nil before the first event
func (f *Filter) LastUniverse() *contracts.Universe {
	return f.lastUniverse
}

// LastSelection returns the most recent screen and ranking, nil before the first event
func (f *Filter) LastSelection() (*selection.ScreenResult, []contracts.RankedSymbol) {
	return f.lastScreen, slices.Clone(f.lastRanking)
}

// State snapshots the filter for persistence
func (f *Filter) State() *contracts.FilterState {
	return &contracts.FilterState{
		StrategyID:     f.config.StrategyID,
		RemainingDates: f.RemainingDates(),
		Target:         f.Target(),
		UpdatedAt:      f.updatedAt,
	}
}

// Restore replaces the date queue and cached target with a persisted state
func (f *Filter) Restore(state *contracts.FilterState) error {
	if state == nil {
		return fmt.Errorf("restore filter: nil state")
	}
	if state.StrategyID != f.config.StrategyID {
		return fmt.Errorf("restore filter: strategy mismatch (have %s, got %s)", f.config.StrategyID, state.StrategyID)
	}
	if !slices.IsSortedFunc(state.RemainingDates, func(a, b time.Time) int { return a.Compare(b) }) {
		return fmt.Errorf("restore filter: remaining dates not increasing")
	}

	f.remaining = slices.Clone(state.RemainingDates)
	f.target = state.Target.Clone()
	if f.target.Symbols == nil {
		f.target.Symbols = []contracts.Symbol{}
	}
	f.updatedAt = state.UpdatedAt

	f.logger.WithFields(map[string]interface{}{
		"remaining_dates": len(f.remaining),
		"target_size":     f.target.Count(),
		"updated_at":      state.UpdatedAt,
	}).Info("Filter state restored")

	return nil
}
