package contracts

import "github.com/shopspring/decimal"

// FundamentalRecord carries the valuation inputs for the fine filter
// ⭐ SSOT: Fine 단계 입력 데이터
type FundamentalRecord struct {
	Symbol         Symbol          `json:"symbol"`
	PERatio        decimal.Decimal `json:"pe_ratio"`
	PE5YearAverage decimal.Decimal `json:"pe_5y_average"`
	ROIC           decimal.Decimal `json:"roic"` // return on invested capital
}

// ValueScore returns PE / PE5YearAverage
// ok is false when either input is non-positive; the record must then be skipped.
func (f FundamentalRecord) ValueScore() (decimal.Decimal, bool) {
	if !f.PERatio.IsPositive() || !f.PE5YearAverage.IsPositive() {
		return decimal.Zero, false
	}
	return f.PERatio.Div(f.PE5YearAverage), true
}
