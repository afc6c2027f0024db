package contracts

import "github.com/shopspring/decimal"

// Symbol uniquely names a tradable instrument
// ⭐ SSOT: 종목 식별자는 이 타입만 사용
type Symbol string

// String returns the raw ticker
func (s Symbol) String() string {
	return string(s)
}

// SecurityDescriptor is one row of the coarse candidate list
type SecurityDescriptor struct {
	Symbol       Symbol          `json:"symbol"`
	Market       string          `json:"market"`
	Exchange     string          `json:"exchange"`
	DollarVolume decimal.Decimal `json:"dollar_volume"` // trailing dollar volume
	Price        decimal.Decimal `json:"price"`
}

// Handle returns the execution handle for the descriptor
func (d SecurityDescriptor) Handle() SecurityHandle {
	return SecurityHandle{
		Symbol:   d.Symbol,
		Market:   d.Market,
		Exchange: d.Exchange,
	}
}

// SecurityHandle identifies a universe member for order routing
// The core treats it as opaque; it is passed through to the execution side.
type SecurityHandle struct {
	Symbol   Symbol `json:"symbol"`
	Market   string `json:"market"`
	Exchange string `json:"exchange"`
}

// Symbols extracts the symbols of descriptors keeping their order
func Symbols(descriptors []SecurityDescriptor) []Symbol {
	out := make([]Symbol, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Symbol)
	}
	return out
}
