package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
)

// Repository reads candidates and fundamentals from PostgreSQL
// ⭐ SSOT: 후보/펀더멘털 조회는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// Candidates implements contracts.CandidateSource
// Each symbol contributes its latest row on or before asOf.
func (r *Repository) Candidates(ctx context.Context, asOf time.Time) ([]contracts.SecurityDescriptor, error) {
	query := `
		SELECT DISTINCT ON (symbol)
			symbol, market, exchange, dollar_volume::text, price::text
		FROM data.securities
		WHERE trade_date <= $1::date
		ORDER BY symbol, trade_date DESC
	`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("query securities: %w", err)
	}
	defer rows.Close()

	candidates := make([]contracts.SecurityDescriptor, 0)
	for rows.Next() {
		var (
			d                   contracts.SecurityDescriptor
			symbol              string
			dollarVolume, price string
		)
		if err := rows.Scan(&symbol, &d.Market, &d.Exchange, &dollarVolume, &price); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}

		d.Symbol = contracts.Symbol(symbol)
		if d.DollarVolume, err = decimal.NewFromString(dollarVolume); err != nil {
			return nil, fmt.Errorf("parse dollar volume for %s: %w", symbol, err)
		}
		if d.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", symbol, err)
		}

		candidates = append(candidates, d)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate securities: %w", rows.Err())
	}

	return candidates, nil
}

// Fundamentals implements contracts.FundamentalSource
// Symbols without a record are simply absent from the result.
func (r *Repository) Fundamentals(ctx context.Context, asOf time.Time, symbols []contracts.Symbol) ([]contracts.FundamentalRecord, error) {
	if len(symbols) == 0 {
		return []contracts.FundamentalRecord{}, nil
	}

	codes := make([]string, 0, len(symbols))
	for _, s := range symbols {
		codes = append(codes, s.String())
	}

	query := `
		SELECT DISTINCT ON (symbol)
			symbol, pe_ratio::text, pe_5y_avg::text, roic::text
		FROM data.fundamentals
		WHERE symbol = ANY($1) AND as_of <= $2::date
		ORDER BY symbol, as_of DESC
	`

	rows, err := r.db.Query(ctx, query, codes, asOf)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	defer rows.Close()

	bySymbol := make(map[contracts.Symbol]contracts.FundamentalRecord, len(symbols))
	for rows.Next() {
		var symbol, pe, pe5y, roic string
		if err := rows.Scan(&symbol, &pe, &pe5y, &roic); err != nil {
			return nil, fmt.Errorf("scan fundamental: %w", err)
		}

		rec, err := parseFundamental(symbol, pe, pe5y, roic)
		if err != nil {
			return nil, err
		}
		bySymbol[rec.Symbol] = rec
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate fundamentals: %w", rows.Err())
	}

	// 요청 순서 유지 (랭킹 동점 시 입력 순서가 기준)
	records := make([]contracts.FundamentalRecord, 0, len(bySymbol))
	for _, s := range symbols {
		if rec, ok := bySymbol[s]; ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

func parseFundamental(symbol, pe, pe5y, roic string) (contracts.FundamentalRecord, error) {
	rec := contracts.FundamentalRecord{Symbol: contracts.Symbol(symbol)}

	var err error
	if rec.PERatio, err = decimal.NewFromString(pe); err != nil {
		return rec, fmt.Errorf("parse pe_ratio for %s: %w", symbol, err)
	}
	if rec.PE5YearAverage, err = decimal.NewFromString(pe5y); err != nil {
		return rec, fmt.Errorf("parse pe_5y_avg for %s: %w", symbol, err)
	}
	if rec.ROIC, err = decimal.NewFromString(roic); err != nil {
		return rec, fmt.Errorf("parse roic for %s: %w", symbol, err)
	}

	return rec, nil
}
