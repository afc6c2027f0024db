package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/rebalancer/internal/contracts"
)

// Repository handles portfolio data persistence
// ⭐ SSOT: Portfolio 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new portfolio repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Holdings implements contracts.HoldingsProvider
// Rows with zero quantity are not positions.
func (r *Repository) Holdings(ctx context.Context) ([]contracts.Symbol, error) {
	query := `
		SELECT symbol
		FROM portfolio.holdings
		WHERE quantity <> 0
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]contracts.Symbol, 0)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, contracts.Symbol(symbol))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return holdings, nil
}

// SaveTarget appends a target portfolio to the history
func (r *Repository) SaveTarget(ctx context.Context, target *contracts.TargetPortfolio) error {
	symbols := make([]string, 0, target.Count())
	for _, s := range target.Symbols {
		symbols = append(symbols, s.String())
	}

	query := `
		INSERT INTO portfolio.target_history (target_date, symbols, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (target_date) DO UPDATE SET
			symbols = EXCLUDED.symbols,
			created_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, target.Date, symbols); err != nil {
		return fmt.Errorf("failed to save target portfolio: %w", err)
	}

	return nil
}

// GetTargetHistory retrieves the most recent targets, newest first
func (r *Repository) GetTargetHistory(ctx context.Context, limit int) ([]contracts.TargetPortfolio, error) {
	query := `
		SELECT target_date, symbols
		FROM portfolio.target_history
		ORDER BY target_date DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query target history: %w", err)
	}
	defer rows.Close()

	history := make([]contracts.TargetPortfolio, 0)
	for rows.Next() {
		var (
			target  contracts.TargetPortfolio
			symbols []string
		)
		if err := rows.Scan(&target.Date, &symbols); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		target.Symbols = make([]contracts.Symbol, 0, len(symbols))
		for _, s := range symbols {
			target.Symbols = append(target.Symbols, contracts.Symbol(s))
		}
		history = append(history, target)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return history, nil
}

// RebalanceLog summarizes one membership-change rebalance
type RebalanceLog struct {
	Date            time.Time
	Diff            Diff
	TotalOrders     int
	ExecutionTimeMs int64
}

// SaveRebalanceLog saves rebalance execution log
func (r *Repository) SaveRebalanceLog(ctx context.Context, log *RebalanceLog) error {
	diffJSON, err := json.Marshal(log.Diff)
	if err != nil {
		return fmt.Errorf("failed to marshal diff: %w", err)
	}

	query := `
		INSERT INTO portfolio.rebalance_logs (
			rebalance_date, sell_count, buy_count, suppressed_count,
			total_orders, execution_time_ms, diff
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		log.Date, len(log.Diff.Sell), len(log.Diff.Buy), len(log.Diff.Suppressed),
		log.TotalOrders, log.ExecutionTimeMs, diffJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save rebalance log: %w", err)
	}

	return nil
}
