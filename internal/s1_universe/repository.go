package s1_universe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/rebalancer/internal/contracts"
)

// Repository handles data persistence for the universe filter
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SaveUniverse saves a coarse snapshot to the database
func (r *Repository) SaveUniverse(ctx context.Context, universe *contracts.Universe) error {
	excludedJSON, err := json.Marshal(universe.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	query := `
		INSERT INTO rebalance.universe_snapshots (
			snapshot_date,
			eligible_symbols,
			total_count,
			excluded,
			created_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			eligible_symbols = EXCLUDED.eligible_symbols,
			total_count = EXCLUDED.total_count,
			excluded = EXCLUDED.excluded,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		universe.Date,
		symbolStrings(universe.Symbols),
		universe.TotalCount,
		excludedJSON,
	)
	if err != nil {
		return fmt.Errorf("insert universe: %w", err)
	}

	return nil
}

// LoadState implements contracts.StateStore
func (r *Repository) LoadState(ctx context.Context, strategyID string) (*contracts.FilterState, error) {
	query := `
		SELECT remaining_dates, target_date, target_symbols, updated_at
		FROM rebalance.filter_state
		WHERE strategy_id = $1
	`

	var (
		remaining  []time.Time
		targetDate *time.Time
		symbols    []string
		updatedAt  time.Time
	)
	err := r.db.QueryRow(ctx, query, strategyID).Scan(&remaining, &targetDate, &symbols, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query filter state: %w", err)
	}

	state := &contracts.FilterState{
		StrategyID:     strategyID,
		RemainingDates: remaining,
		Target: contracts.TargetPortfolio{
			Symbols: make([]contracts.Symbol, 0, len(symbols)),
		},
		UpdatedAt: updatedAt,
	}
	if targetDate != nil {
		state.Target.Date = *targetDate
	}
	for _, s := range symbols {
		state.Target.Symbols = append(state.Target.Symbols, contracts.Symbol(s))
	}

	return state, nil
}

// SaveState implements contracts.StateStore
func (r *Repository) SaveState(ctx context.Context, state *contracts.FilterState) error {
	var targetDate *time.Time
	if !state.Target.Date.IsZero() {
		targetDate = &state.Target.Date
	}

	remaining := state.RemainingDates
	if remaining == nil {
		remaining = []time.Time{}
	}

	query := `
		INSERT INTO rebalance.filter_state (
			strategy_id, remaining_dates, target_date, target_symbols, updated_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (strategy_id) DO UPDATE SET
			remaining_dates = EXCLUDED.remaining_dates,
			target_date = EXCLUDED.target_date,
			target_symbols = EXCLUDED.target_symbols,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		state.StrategyID,
		remaining,
		targetDate,
		symbolStrings(state.Target.Symbols),
	)
	if err != nil {
		return fmt.Errorf("upsert filter state: %w", err)
	}

	return nil
}

func symbolStrings(symbols []contracts.Symbol) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, s.String())
	}
	return out
}
