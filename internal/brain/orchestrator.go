package brain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/s0_data/quality"
	"github.com/wonny/rebalancer/internal/s1_universe"
	"github.com/wonny/rebalancer/pkg/logger"
)

// ErrTickInProgress is returned when another process holds the tick lock
var ErrTickInProgress = errors.New("rebalance tick already in progress")

// tickLockTTL bounds how long a crashed process can block other ticks
const tickLockTTL = 5 * time.Minute

// Locker serializes ticks across processes
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

// Orchestrator drives one rebalancing tick end to end
// ⭐ SSOT: 틱 조율은 여기서만 (coarse → fine → membership → controller → state)
type Orchestrator struct {
	mu sync.Mutex

	strategyID   string
	filter       *s1_universe.Filter
	controller   *Controller
	candidates   contracts.CandidateSource
	fundamentals contracts.FundamentalSource

	// Optional collaborators
	store   contracts.StateStore
	journal Journal
	locker  Locker
	quality *quality.Gate

	members    map[contracts.Symbol]contracts.SecurityHandle
	membership []contracts.Symbol
	lastTick   *TickResult

	logger *logger.Logger
}

// Deps holds the collaborators of an orchestrator
// Store, Journal, Locker and Quality may be nil.
type Deps struct {
	StrategyID   string
	Filter       *s1_universe.Filter
	Controller   *Controller
	Candidates   contracts.CandidateSource
	Fundamentals contracts.FundamentalSource
	Store        contracts.StateStore
	Journal      Journal
	Locker       Locker
	Quality      *quality.Gate
}

// TickResult holds the results of one tick
type TickResult struct {
	Tick      contracts.Tick              `json:"tick"`
	Selected  []contracts.Symbol          `json:"selected"` // coarse 결과
	Target    []contracts.Symbol          `json:"target"`   // fine 결과
	Changes   contracts.MembershipChanges `json:"changes"`
	Rebalance *RebalanceResult            `json:"rebalance,omitempty"`
	Coverage  *quality.Report             `json:"coverage,omitempty"`
	Duration  time.Duration               `json:"duration"`
}

// Snapshot is a read-only view of the engine state
type Snapshot struct {
	StrategyID     string                    `json:"strategy_id"`
	Target         contracts.TargetPortfolio `json:"target"`
	RemainingDates []time.Time               `json:"remaining_dates"`
	NextRebalance  *time.Time                `json:"next_rebalance,omitempty"`
	LastTick       *TickResult               `json:"last_tick,omitempty"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, logger *logger.Logger) *Orchestrator {
	return &Orchestrator{
		strategyID:   deps.StrategyID,
		filter:       deps.Filter,
		controller:   deps.Controller,
		candidates:   deps.Candidates,
		fundamentals: deps.Fundamentals,
		store:        deps.Store,
		journal:      deps.Journal,
		locker:       deps.Locker,
		quality:      deps.Quality,
		members:      make(map[contracts.Symbol]contracts.SecurityHandle),
		membership:   []contracts.Symbol{},
		logger:       logger.WithComponent("orchestrator"),
	}
}

// Restore loads persisted filter state, a missing state starts fresh
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.store == nil {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	state, err := o.store.LoadState(ctx, o.strategyID)
	if errors.Is(err, contracts.ErrNotFound) {
		o.logger.WithField("strategy_id", o.strategyID).Info("No saved filter state, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load filter state: %w", err)
	}

	if err := o.filter.Restore(state); err != nil {
		return err
	}

	// 복원된 목표를 현재 멤버십으로 간주 (재시작 시 불필요한 리밸런싱 방지)
	o.membership = slices.Clone(state.Target.Symbols)
	return nil
}

// RunTick executes one coarse/fine pass and reacts to membership changes
// Calls are serialized; with a Locker they are also serialized across processes.
func (o *Orchestrator) RunTick(ctx context.Context, now time.Time) (*TickResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.locker != nil {
		release, ok, err := o.locker.TryLock(ctx, "tick:"+o.strategyID, tickLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire tick lock: %w", err)
		}
		if !ok {
			return nil, ErrTickInProgress
		}
		defer release()
	}

	startTime := time.Now()

	// 1. Coarse (후보는 리밸런싱 시점에만 조회)
	var candidates []contracts.SecurityDescriptor
	if o.filter.IsDue(now) {
		var err error
		candidates, err = o.candidates.Candidates(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
	}

	tick, selected := o.filter.EvaluateCoarse(now, candidates)
	o.rememberHandles(candidates)

	// 2. Fine
	var records []contracts.FundamentalRecord
	if tick.Rebalancing {
		var err error
		records, err = o.fundamentals.Fundamentals(ctx, now, selected)
		if err != nil {
			o.filter.Unwind(tick)
			return nil, fmt.Errorf("load fundamentals: %w", err)
		}
	}
	target := o.filter.EvaluateFine(tick, records)

	result := &TickResult{
		Tick:     tick,
		Selected: selected,
		Target:   target,
		Changes:  contracts.CompareMembership(o.membership, target),
	}

	if tick.Rebalancing {
		if o.quality != nil {
			report := o.quality.Check(selected, records)
			result.Coverage = &report
		}
		o.recordSelection(ctx, tick)
	}

	// 3. Membership change → controller
	// 주문 생성 전 실패만 다음 틱에서 재시도됨 (전달된 주문은 재발행하지 않음)
	var notifyErr error
	if !result.Changes.IsEmpty() {
		rebalance, err := o.controller.OnMembershipChanged(ctx, now, result.Changes, o.members)
		if err != nil {
			notifyErr = fmt.Errorf("handle membership change: %w", err)
		}
		if rebalance != nil {
			result.Rebalance = rebalance
			o.membership = slices.Clone(target)
			o.recordRebalance(ctx, rebalance)
		}
	}

	// 4. State (날짜 소비는 알림 실패와 무관하게 저장)
	if err := o.saveState(ctx); err != nil {
		return result, errors.Join(notifyErr, err)
	}

	result.Duration = time.Since(startTime)
	o.lastTick = result

	o.logger.WithFields(map[string]interface{}{
		"now":         now.Format(time.RFC3339),
		"rebalancing": tick.Rebalancing,
		"selected":    len(selected),
		"target":      len(target),
		"added":       len(result.Changes.Added),
		"removed":     len(result.Changes.Removed),
		"duration":    result.Duration,
	}).Info("Tick completed")

	return result, notifyErr
}

// Snapshot returns the current engine state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		StrategyID:     o.strategyID,
		Target:         o.filter.Target(),
		RemainingDates: o.filter.RemainingDates(),
		LastTick:       o.lastTick,
	}
	if len(snap.RemainingDates) > 0 {
		next := snap.RemainingDates[0]
		snap.NextRebalance = &next
	}
	return snap
}

// rememberHandles merges candidate handles into the member map
// Handles are never dropped so removed members can still be sold.
func (o *Orchestrator) rememberHandles(candidates []contracts.SecurityDescriptor) {
	for _, c := range candidates {
		o.members[c.Symbol] = c.Handle()
	}
}

func (o *Orchestrator) saveState(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	if err := o.store.SaveState(ctx, o.filter.State()); err != nil {
		return fmt.Errorf("save filter state: %w", err)
	}
	return nil
}

// recordSelection and recordRebalance are best effort
func (o *Orchestrator) recordSelection(ctx context.Context, tick contracts.Tick) {
	if o.journal == nil {
		return
	}

	screen, ranked := o.filter.LastSelection()
	rec := SelectionRecord{
		Tick:     tick,
		Universe: o.filter.LastUniverse(),
		Screen:   screen,
		Ranked:   ranked,
		Target:   o.filter.Target(),
	}
	if err := o.journal.RecordSelection(ctx, rec); err != nil {
		o.logger.WithError(err).Warn("Failed to record selection")
	}
}

func (o *Orchestrator) recordRebalance(ctx context.Context, result *RebalanceResult) {
	if o.journal == nil || result == nil {
		return
	}
	if err := o.journal.RecordRebalance(ctx, result); err != nil {
		o.logger.WithError(err).Warn("Failed to record rebalance")
	}
}
