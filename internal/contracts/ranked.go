package contracts

import "github.com/shopspring/decimal"

// RankedSymbol is a fine-stage survivor with its ranking inputs
// ⭐ SSOT: Screener → Ranker 랭킹 결과 전달
type RankedSymbol struct {
	Symbol     Symbol          `json:"symbol"`
	Rank       int             `json:"rank"`        // 1-based ranking
	ROIC       decimal.Decimal `json:"roic"`        // 정렬 키
	ValueScore decimal.Decimal `json:"value_score"` // PE / PE5Y
}

// IsTopRanked checks if the symbol is in top N ranks
func (r *RankedSymbol) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// RankedSymbols extracts symbols keeping rank order
func RankedSymbols(ranked []RankedSymbol) []Symbol {
	out := make([]Symbol, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Symbol)
	}
	return out
}
