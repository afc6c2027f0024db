package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
)

// Repository persists fine-stage screening and ranking results
// ⭐ SSOT: Selection 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSelection stores the screen counts and the ranked survivors of one rebalance
func (r *Repository) SaveSelection(ctx context.Context, date time.Time, screen ScreenResult, ranked []contracts.RankedSymbol) error {
	filteredJSON, err := json.Marshal(screen.Filtered)
	if err != nil {
		return fmt.Errorf("failed to marshal filtered: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rebalance.screening_results (
			screen_date, filtered, total_input, total_passed
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (screen_date) DO UPDATE SET
			filtered = EXCLUDED.filtered,
			total_input = EXCLUDED.total_input,
			total_passed = EXCLUDED.total_passed,
			created_at = NOW()
	`, date, filteredJSON, screen.TotalInput, len(screen.Passed))
	if err != nil {
		return fmt.Errorf("failed to save screening result: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM rebalance.ranking_results WHERE rank_date = $1", date)
	if err != nil {
		return fmt.Errorf("failed to delete old results: %w", err)
	}

	for _, item := range ranked {
		_, err := tx.Exec(ctx, `
			INSERT INTO rebalance.ranking_results (symbol, rank_date, rank, roic, value_score)
			VALUES ($1, $2, $3, $4, $5)
		`, item.Symbol.String(), date, item.Rank, item.ROIC.String(), item.ValueScore.String())
		if err != nil {
			return fmt.Errorf("failed to insert ranking result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRanking retrieves ranked survivors for a rebalance date
func (r *Repository) GetRanking(ctx context.Context, date time.Time) ([]contracts.RankedSymbol, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, rank, roic::text, value_score::text
		FROM rebalance.ranking_results
		WHERE rank_date = $1
		ORDER BY rank ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.RankedSymbol, 0)
	for rows.Next() {
		var (
			item             contracts.RankedSymbol
			symbol           string
			roic, valueScore string
		)
		if err := rows.Scan(&symbol, &item.Rank, &roic, &valueScore); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		item.Symbol = contracts.Symbol(symbol)
		if item.ROIC, err = decimalFromText(roic); err != nil {
			return nil, err
		}
		if item.ValueScore, err = decimalFromText(valueScore); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// GetScreeningCounts retrieves the filter counts for a rebalance date
func (r *Repository) GetScreeningCounts(ctx context.Context, date time.Time) (map[string]int, error) {
	var filteredJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT filtered FROM rebalance.screening_results WHERE screen_date = $1
	`, date).Scan(&filteredJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening result: %w", err)
	}

	filtered := make(map[string]int)
	if err := json.Unmarshal(filteredJSON, &filtered); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filtered: %w", err)
	}
	return filtered, nil
}

// decimalFromText parses a NUMERIC column read as text
func decimalFromText(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
