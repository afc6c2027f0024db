package portfolio

import (
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Diff is the sell/buy transition from holdings to a target
type Diff struct {
	Sell []contracts.Symbol `json:"sell"` // 보유 순서
	Buy  []contracts.Symbol `json:"buy"`  // 목표 순서
	// Suppressed are sells dropped by the balancing rule
	Suppressed []contracts.Symbol `json:"suppressed,omitempty"`
}

// IsEmpty reports whether no action is needed
func (d Diff) IsEmpty() bool {
	return len(d.Sell) == 0 && len(d.Buy) == 0
}

// Differ reconciles current holdings against the target portfolio
// ⭐ SSOT: 보유/목표 차이 계산은 여기서만
type Differ struct {
	logger *logger.Logger
}

// NewDiffer creates a new differ
func NewDiffer(logger *logger.Logger) *Differ {
	return &Differ{logger: logger}
}

// Diff computes sells (held, not targeted) and buys (targeted, not held)
// When sells outnumber buys the surplus is dropped from the front of the sell list.
// Buys are never truncated.
func (d *Differ) Diff(holdings []contracts.Symbol, target []contracts.Symbol) Diff {
	sell := contracts.Minus(holdings, target)
	buy := contracts.Minus(target, holdings)

	result := Diff{Sell: sell, Buy: buy}

	if surplus := len(sell) - len(buy); surplus > 0 {
		result.Suppressed = sell[:surplus:surplus]
		result.Sell = sell[surplus:]
	}

	d.logger.WithFields(map[string]interface{}{
		"holdings":   len(holdings),
		"target":     len(target),
		"sell":       len(result.Sell),
		"buy":        len(result.Buy),
		"suppressed": len(result.Suppressed),
	}).Info("Portfolio diff computed")

	return result
}
