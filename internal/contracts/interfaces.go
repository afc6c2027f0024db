package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when nothing has been saved yet
var ErrNotFound = errors.New("not found")

// CandidateSource supplies the broad candidate list for a coarse tick
// ⭐ SSOT: 외부 데이터 연동 인터페이스는 여기서만 정의
type CandidateSource interface {
	Candidates(ctx context.Context, asOf time.Time) ([]SecurityDescriptor, error)
}

// FundamentalSource supplies fundamentals for the coarse-selected symbols
type FundamentalSource interface {
	Fundamentals(ctx context.Context, asOf time.Time, symbols []Symbol) ([]FundamentalRecord, error)
}

// HoldingsProvider returns symbols currently held with a non-zero position
type HoldingsProvider interface {
	Holdings(ctx context.Context) ([]Symbol, error)
}

// MarketCalendar resolves the next market open for a security
type MarketCalendar interface {
	// NextMarketOpen returns the first open at or after t on the handle's exchange
	NextMarketOpen(handle SecurityHandle, t time.Time) time.Time
}

// OrderSink receives scheduled orders (fire-and-forget)
type OrderSink interface {
	Dispatch(ctx context.Context, orders []PendingOrder) error
}

// StateStore persists the universe filter state between runs
type StateStore interface {
	LoadState(ctx context.Context, strategyID string) (*FilterState, error)
	SaveState(ctx context.Context, state *FilterState) error
}
