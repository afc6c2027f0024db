package quality

import (
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Gate checks how much of the coarse selection came back with usable fundamentals
// ⭐ SSOT: S0 → Fine 데이터 품질 검증
// The gate only reports; symbols without fundamentals are already excluded by the fine stage.
type Gate struct {
	config Config
	logger *logger.Logger
}

// Config holds quality gate thresholds
type Config struct {
	MinFundamentalCoverage float64 `yaml:"min_fundamental_coverage"` // 0.80
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		MinFundamentalCoverage: 0.80,
	}
}

// Report is the coverage result of one fine pass
type Report struct {
	Requested int                `json:"requested"`
	Covered   int                `json:"covered"`
	Usable    int                `json:"usable"`   // 밸류 점수 계산 가능
	Coverage  float64            `json:"coverage"` // Usable / Requested
	Missing   []contracts.Symbol `json:"missing,omitempty"`
	Passed    bool               `json:"passed"`
}

// NewGate creates a new quality gate
func NewGate(config Config, logger *logger.Logger) *Gate {
	return &Gate{
		config: config,
		logger: logger.WithComponent("quality_gate"),
	}
}

// Check compares requested symbols against the returned records
// An empty request is trivially covered.
func (g *Gate) Check(requested []contracts.Symbol, records []contracts.FundamentalRecord) Report {
	report := Report{
		Requested: len(requested),
		Passed:    true,
		Coverage:  1,
	}
	if len(requested) == 0 {
		return report
	}

	bySymbol := make(map[contracts.Symbol]contracts.FundamentalRecord, len(records))
	for _, r := range records {
		bySymbol[r.Symbol] = r
	}

	for _, symbol := range requested {
		rec, ok := bySymbol[symbol]
		if !ok {
			report.Missing = append(report.Missing, symbol)
			continue
		}
		report.Covered++
		if _, usable := rec.ValueScore(); usable {
			report.Usable++
		}
	}

	report.Coverage = float64(report.Usable) / float64(report.Requested)
	report.Passed = report.Coverage >= g.config.MinFundamentalCoverage

	if !report.Passed {
		g.logger.WithFields(map[string]interface{}{
			"requested": report.Requested,
			"covered":   report.Covered,
			"usable":    report.Usable,
			"coverage":  report.Coverage,
			"threshold": g.config.MinFundamentalCoverage,
		}).Warn("Fundamental coverage below threshold")
	}

	return report
}
