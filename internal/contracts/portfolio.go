package contracts

import (
	"slices"
	"time"
)

// TargetPortfolio is the current rebalancing decision
// ⭐ SSOT: Fine → Controller 목표 포트폴리오 전달
// Replaced wholesale on every successful fine pass, otherwise held as the cached decision.
type TargetPortfolio struct {
	Date    time.Time `json:"date"`
	Symbols []Symbol  `json:"symbols"` // 랭킹 순서 유지
}

// Count returns the number of target positions
func (tp TargetPortfolio) Count() int {
	return len(tp.Symbols)
}

// Contains checks if a symbol is part of the target
func (tp TargetPortfolio) Contains(symbol Symbol) bool {
	return slices.Contains(tp.Symbols, symbol)
}

// Clone returns a copy that does not share the symbol slice
func (tp TargetPortfolio) Clone() TargetPortfolio {
	return TargetPortfolio{
		Date:    tp.Date,
		Symbols: slices.Clone(tp.Symbols),
	}
}

// FilterState is the persisted state of the universe filter
type FilterState struct {
	StrategyID     string          `json:"strategy_id"`
	RemainingDates []time.Time     `json:"remaining_dates"`
	Target         TargetPortfolio `json:"target"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
