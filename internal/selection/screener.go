package selection

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Filter reasons reported by the screener
const (
	ReasonNonPositivePE   = "non_positive_pe"
	ReasonNonPositivePE5Y = "non_positive_pe5y"
	ReasonValueRatio      = "value_ratio"
)

// Screener implements the fine-stage value cut
// ⭐ SSOT: 밸류 스크리닝 로직은 여기서만
type Screener struct {
	config ScreenerConfig
	logger *logger.Logger
}

// ScreenerConfig defines the value cut
// SSOT: config/strategy/value_rebalance.yaml fine
type ScreenerConfig struct {
	MaxValueRatio decimal.Decimal // PE / PE5Y 상한 (미만만 통과, 예: 0.7)
}

// ScreenResult is the outcome of one screening pass
type ScreenResult struct {
	Passed     []contracts.FundamentalRecord `json:"passed"` // 입력 순서 유지
	Filtered   map[string]int                `json:"filtered"`
	TotalInput int                           `json:"total_input"`
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, logger *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: logger,
	}
}

// Screen keeps records that are cheap relative to their own 5-year PE history
// Records with non-positive PE inputs are skipped, never fatal.
func (s *Screener) Screen(records []contracts.FundamentalRecord) ScreenResult {
	result := ScreenResult{
		Passed:     make([]contracts.FundamentalRecord, 0),
		Filtered:   make(map[string]int),
		TotalInput: len(records),
	}

	for _, record := range records {
		reason := s.checkConditions(record)
		if reason != "" {
			result.Filtered[reason]++
			continue
		}
		result.Passed = append(result.Passed, record)
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  result.TotalInput,
		"passed":       len(result.Passed),
		"filtered_out": result.TotalInput - len(result.Passed),
		"filters":      result.Filtered,
	}).Info("Screening completed")

	return result
}

// checkConditions returns empty string if passed, otherwise the filter name
func (s *Screener) checkConditions(record contracts.FundamentalRecord) string {
	if !record.PE5YearAverage.IsPositive() {
		return ReasonNonPositivePE5Y
	}

	if !record.PERatio.IsPositive() {
		return ReasonNonPositivePE
	}

	score, _ := record.ValueScore()
	if !score.LessThan(s.config.MaxValueRatio) {
		return ReasonValueRatio
	}

	return ""
}

// DefaultScreenerConfig returns default configuration
func DefaultScreenerConfig() ScreenerConfig {
	return ScreenerConfig{
		MaxValueRatio: decimal.RequireFromString("0.7"),
	}
}
