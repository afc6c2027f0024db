package selection

import (
	"sort"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

// Ranker orders screened records by return on invested capital
// ⭐ SSOT: ROIC 랭킹 로직은 여기서만
type Ranker struct {
	config RankerConfig
	logger *logger.Logger
}

// RankerConfig defines how many symbols survive ranking
type RankerConfig struct {
	PortfolioSize int // 상위 N 종목 (기본: 10)
}

// NewRanker creates a new ranker
func NewRanker(config RankerConfig, logger *logger.Logger) *Ranker {
	return &Ranker{
		config: config,
		logger: logger,
	}
}

// Rank sorts by ROIC descending and keeps the top N
// Equal ROIC keeps input order.
func (r *Ranker) Rank(records []contracts.FundamentalRecord) []contracts.RankedSymbol {
	ranked := make([]contracts.RankedSymbol, 0, len(records))
	for _, record := range records {
		score, _ := record.ValueScore()
		ranked = append(ranked, contracts.RankedSymbol{
			Symbol:     record.Symbol,
			ROIC:       record.ROIC,
			ValueScore: score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ROIC.GreaterThan(ranked[j].ROIC)
	})

	ranked = r.selectTopN(ranked)

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	fields := map[string]interface{}{
		"total_input": len(records),
		"selected":    len(ranked),
	}
	if len(ranked) > 0 {
		fields["top_symbol"] = ranked[0].Symbol
		fields["top_roic"] = ranked[0].ROIC.String()
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return ranked
}

// selectTopN truncates to the configured portfolio size
func (r *Ranker) selectTopN(ranked []contracts.RankedSymbol) []contracts.RankedSymbol {
	n := r.config.PortfolioSize
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}

// DefaultRankerConfig returns default configuration
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		PortfolioSize: 10,
	}
}
