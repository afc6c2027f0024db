package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/contracts"
)

// Repository journals pending orders
// ⭐ SSOT: Execution 데이터 저장/조회는 여기서만
// It is an OrderSink; the journal is append-only and never tracks fills.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new execution repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Dispatch implements contracts.OrderSink
func (r *Repository) Dispatch(ctx context.Context, orders []contracts.PendingOrder) error {
	if len(orders) == 0 {
		return nil
	}

	query := `
		INSERT INTO execution.pending_orders (
			id, symbol, market, exchange, action, trigger_date,
			minutes_after_open, trigger_at, sizing_fraction, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(query,
			o.ID, o.Symbol.String(), o.Handle.Market, o.Handle.Exchange, string(o.Action), o.TriggerDate,
			o.MinutesAfterOpen, o.TriggerAt, o.SizingFraction.String(), o.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range orders {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save pending order: %w", err)
		}
	}

	return nil
}

// ListOrders retrieves orders whose trigger time falls in [from, to)
func (r *Repository) ListOrders(ctx context.Context, from, to time.Time) ([]contracts.PendingOrder, error) {
	query := `
		SELECT id, symbol, market, exchange, action, trigger_date,
		       minutes_after_open, trigger_at, sizing_fraction::text, created_at
		FROM execution.pending_orders
		WHERE trigger_at >= $1 AND trigger_at < $2
		ORDER BY trigger_at ASC, action DESC, symbol ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	defer rows.Close()

	orders := make([]contracts.PendingOrder, 0)
	for rows.Next() {
		var (
			o        contracts.PendingOrder
			id       uuid.UUID
			symbol   string
			action   string
			fraction string
		)
		err := rows.Scan(
			&id, &symbol, &o.Handle.Market, &o.Handle.Exchange, &action, &o.TriggerDate,
			&o.MinutesAfterOpen, &o.TriggerAt, &fraction, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending order: %w", err)
		}

		o.ID = id
		o.Symbol = contracts.Symbol(symbol)
		o.Handle.Symbol = o.Symbol
		o.Action = contracts.Action(action)
		if o.SizingFraction, err = decimal.NewFromString(fraction); err != nil {
			return nil, fmt.Errorf("parse sizing fraction %q: %w", fraction, err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}
