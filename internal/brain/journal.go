package brain

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/internal/s1_universe"
	"github.com/wonny/rebalancer/internal/selection"
)

// Journal records the intermediate results of rebalancing ticks
type Journal interface {
	RecordSelection(ctx context.Context, rec SelectionRecord) error
	RecordRebalance(ctx context.Context, result *RebalanceResult) error
}

// SelectionRecord is everything the filter decided on a rebalancing tick
type SelectionRecord struct {
	Tick     contracts.Tick
	Universe *contracts.Universe
	Screen   *selection.ScreenResult
	Ranked   []contracts.RankedSymbol
	Target   contracts.TargetPortfolio
}

// DBJournal writes tick results through the stage repositories
type DBJournal struct {
	universeRepo  *s1_universe.Repository
	selectionRepo *selection.Repository
	portfolioRepo *portfolio.Repository
}

// NewDBJournal creates a new database journal
func NewDBJournal(
	universeRepo *s1_universe.Repository,
	selectionRepo *selection.Repository,
	portfolioRepo *portfolio.Repository,
) *DBJournal {
	return &DBJournal{
		universeRepo:  universeRepo,
		selectionRepo: selectionRepo,
		portfolioRepo: portfolioRepo,
	}
}

// RecordSelection implements Journal
func (j *DBJournal) RecordSelection(ctx context.Context, rec SelectionRecord) error {
	var errs []error

	if rec.Universe != nil {
		if err := j.universeRepo.SaveUniverse(ctx, rec.Universe); err != nil {
			errs = append(errs, fmt.Errorf("save universe: %w", err))
		}
	}

	if rec.Screen != nil {
		if err := j.selectionRepo.SaveSelection(ctx, rec.Tick.RebalanceDate, *rec.Screen, rec.Ranked); err != nil {
			errs = append(errs, fmt.Errorf("save selection: %w", err))
		}
	}

	if err := j.portfolioRepo.SaveTarget(ctx, &rec.Target); err != nil {
		errs = append(errs, fmt.Errorf("save target: %w", err))
	}

	return errors.Join(errs...)
}

// RecordRebalance implements Journal
func (j *DBJournal) RecordRebalance(ctx context.Context, result *RebalanceResult) error {
	return j.portfolioRepo.SaveRebalanceLog(ctx, &portfolio.RebalanceLog{
		Date:            result.AsOf,
		Diff:            result.Diff,
		TotalOrders:     len(result.Orders),
		ExecutionTimeMs: result.Duration.Milliseconds(),
	})
}
