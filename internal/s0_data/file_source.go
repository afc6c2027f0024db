package s0_data

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wonny/rebalancer/internal/contracts"
)

// FileSource serves candidates, fundamentals and holdings from a YAML snapshot
// Used by the CLI to run ticks without a database.
type FileSource struct {
	snapshot Snapshot
}

// Snapshot is the YAML document read by FileSource
type Snapshot struct {
	Securities   []SecurityRow    `yaml:"securities"`
	Fundamentals []FundamentalRow `yaml:"fundamentals"`
	Holdings     []string         `yaml:"holdings"`
}

// SecurityRow is one dated candidate row
type SecurityRow struct {
	Symbol       string `yaml:"symbol"`
	Market       string `yaml:"market"`
	Exchange     string `yaml:"exchange"`
	TradeDate    string `yaml:"trade_date"` // YYYY-MM-DD
	DollarVolume string `yaml:"dollar_volume"`
	Price        string `yaml:"price"`
}

// FundamentalRow is one dated fundamental row
type FundamentalRow struct {
	Symbol  string `yaml:"symbol"`
	AsOf    string `yaml:"as_of"` // YYYY-MM-DD
	PERatio string `yaml:"pe_ratio"`
	PE5Y    string `yaml:"pe_5y_avg"`
	ROIC    string `yaml:"roic"`
}

// LoadFileSource reads and checks a snapshot file
func LoadFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseFileSource(data)
}

// ParseFileSource decodes a snapshot document
func ParseFileSource(data []byte) (*FileSource, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	for i, row := range snap.Securities {
		if _, err := time.Parse("2006-01-02", row.TradeDate); err != nil {
			return nil, fmt.Errorf("securities[%d]: trade_date: %w", i, err)
		}
	}
	for i, row := range snap.Fundamentals {
		if _, err := time.Parse("2006-01-02", row.AsOf); err != nil {
			return nil, fmt.Errorf("fundamentals[%d]: as_of: %w", i, err)
		}
	}

	return &FileSource{snapshot: snap}, nil
}

// Candidates implements contracts.CandidateSource
func (s *FileSource) Candidates(_ context.Context, asOf time.Time) ([]contracts.SecurityDescriptor, error) {
	cutoff := asOf.Format("2006-01-02")

	latest := make(map[string]SecurityRow)
	for _, row := range s.snapshot.Securities {
		if row.TradeDate > cutoff {
			continue
		}
		if prev, ok := latest[row.Symbol]; !ok || row.TradeDate > prev.TradeDate {
			latest[row.Symbol] = row
		}
	}

	symbols := make([]string, 0, len(latest))
	for symbol := range latest {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	candidates := make([]contracts.SecurityDescriptor, 0, len(symbols))
	for _, symbol := range symbols {
		row := latest[symbol]

		dollarVolume, err := decimal.NewFromString(row.DollarVolume)
		if err != nil {
			return nil, fmt.Errorf("parse dollar volume for %s: %w", symbol, err)
		}
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", symbol, err)
		}

		candidates = append(candidates, contracts.SecurityDescriptor{
			Symbol:       contracts.Symbol(symbol),
			Market:       row.Market,
			Exchange:     row.Exchange,
			DollarVolume: dollarVolume,
			Price:        price,
		})
	}

	return candidates, nil
}

// Fundamentals implements contracts.FundamentalSource
func (s *FileSource) Fundamentals(_ context.Context, asOf time.Time, symbols []contracts.Symbol) ([]contracts.FundamentalRecord, error) {
	cutoff := asOf.Format("2006-01-02")

	latest := make(map[string]FundamentalRow)
	for _, row := range s.snapshot.Fundamentals {
		if row.AsOf > cutoff {
			continue
		}
		if prev, ok := latest[row.Symbol]; !ok || row.AsOf > prev.AsOf {
			latest[row.Symbol] = row
		}
	}

	records := make([]contracts.FundamentalRecord, 0, len(symbols))
	for _, symbol := range symbols {
		row, ok := latest[symbol.String()]
		if !ok {
			continue
		}
		rec, err := parseFundamental(row.Symbol, row.PERatio, row.PE5Y, row.ROIC)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Holdings implements contracts.HoldingsProvider
func (s *FileSource) Holdings(_ context.Context) ([]contracts.Symbol, error) {
	out := make([]contracts.Symbol, 0, len(s.snapshot.Holdings))
	for _, h := range s.snapshot.Holdings {
		out = append(out, contracts.Symbol(h))
	}
	return out, nil
}
