package contracts

import (
	"slices"
	"time"
)

// Universe is the coarse-stage result of a rebalancing tick
// ⭐ SSOT: Coarse → Fine 투자 가능 종목 전달
type Universe struct {
	Date       time.Time         `json:"date"`
	Symbols    []Symbol          `json:"symbols"`               // 통과 종목
	Excluded   map[Symbol]string `json:"excluded"`              // 제외 종목: 사유
	TotalCount int               `json:"total_count,omitempty"` // 입력 종목 수
}

// Contains checks if a symbol passed the coarse screen
func (u *Universe) Contains(symbol Symbol) bool {
	return slices.Contains(u.Symbols, symbol)
}

// IsExcluded checks if a symbol was excluded and returns the reason
func (u *Universe) IsExcluded(symbol Symbol) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of symbols that passed
func (u *Universe) Count() int {
	return len(u.Symbols)
}

// Tick is the per-tick context produced by the coarse stage and consumed by the fine stage
type Tick struct {
	Time          time.Time `json:"time"`
	RebalanceDate time.Time `json:"rebalance_date,omitempty"` // popped date, zero when no event
	Rebalancing   bool      `json:"rebalancing"`
	PlacingOrders bool      `json:"placing_orders"`
}

// NewTick starts a tick with no event in progress
func NewTick(now time.Time) Tick {
	return Tick{Time: now}
}

// MembershipChanges describes how the selected universe moved between two ticks
type MembershipChanges struct {
	Added   []Symbol `json:"added"`
	Removed []Symbol `json:"removed"`
}

// IsEmpty reports whether nothing changed
func (c MembershipChanges) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// CompareMembership computes the changes from prev to next
func CompareMembership(prev, next []Symbol) MembershipChanges {
	return MembershipChanges{
		Added:   Minus(next, prev),
		Removed: Minus(prev, next),
	}
}

// Minus returns elements of a not present in b, in a's order
func Minus(a, b []Symbol) []Symbol {
	exclude := make(map[Symbol]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}

	result := make([]Symbol, 0, len(a))
	for _, s := range a {
		if _, found := exclude[s]; !found {
			result = append(result, s)
		}
	}
	return result
}
