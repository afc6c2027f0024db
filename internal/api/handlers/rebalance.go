package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
	"github.com/wonny/rebalancer/pkg/redis"
)

// Engine is the rebalancing engine as seen by the API
type Engine interface {
	Snapshot() brain.Snapshot
	RunTick(ctx context.Context, now time.Time) (*brain.TickResult, error)
}

// OrderLister reads scheduled orders back from storage
type OrderLister interface {
	ListOrders(ctx context.Context, from, to time.Time) ([]contracts.PendingOrder, error)
}

// RankingReader reads journaled rankings
type RankingReader interface {
	GetRanking(ctx context.Context, date time.Time) ([]contracts.RankedSymbol, error)
}

// RebalanceHandler handles rebalancing API endpoints
// ⭐ SSOT: 리밸런싱 API 핸들러는 이 구조체에서만
type RebalanceHandler struct {
	engine   Engine
	orders   OrderLister   // nil이면 주문 조회 비활성화
	rankings RankingReader // nil이면 랭킹 조회 비활성화
	cache    *redis.Cache
	loc      *time.Location // 거래소 시간대 (날짜 파라미터 기준)
	now      func() time.Time
	logger   *logger.Logger
}

// NewRebalanceHandler creates a new rebalance handler
// orders, rankings and cache may be nil. A nil loc means UTC.
func NewRebalanceHandler(engine Engine, orders OrderLister, rankings RankingReader, cache *redis.Cache, loc *time.Location, log *logger.Logger) *RebalanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RebalanceHandler{
		engine:   engine,
		orders:   orders,
		rankings: rankings,
		cache:    cache,
		loc:      loc,
		now:      time.Now,
		logger:   log,
	}
}

// GetTarget returns the cached target portfolio and engine state
// GET /api/target
func (h *RebalanceHandler) GetTarget(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Snapshot())
}

// ScheduleResponse lists the upcoming rebalance dates
type ScheduleResponse struct {
	StrategyID    string      `json:"strategy_id"`
	NextRebalance *time.Time  `json:"next_rebalance,omitempty"`
	Remaining     []time.Time `json:"remaining"`
	Count         int         `json:"count"`
}

// GetSchedule returns the remaining rebalance dates
// GET /api/schedule
func (h *RebalanceHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	respondJSON(w, http.StatusOK, ScheduleResponse{
		StrategyID:    snap.StrategyID,
		NextRebalance: snap.NextRebalance,
		Remaining:     snap.RemainingDates,
		Count:         len(snap.RemainingDates),
	})
}

// OrdersResponse is the order listing for a window
type OrdersResponse struct {
	From   string                   `json:"from"`
	To     string                   `json:"to"`
	Orders []contracts.PendingOrder `json:"orders"`
	Count  int                      `json:"count"`
}

// GetOrders returns orders triggering in [from, to)
// GET /api/orders?from=YYYY-MM-DD&to=YYYY-MM-DD (기본: 오늘부터 7일)
func (h *RebalanceHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		respondError(w, http.StatusServiceUnavailable, "Order storage not configured")
		return
	}

	today := midnight(h.now(), h.loc)
	from, err := parseTime(r.URL.Query().Get("from"), today, h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to, err := parseTime(r.URL.Query().Get("to"), from.AddDate(0, 0, 7), h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}
	if !to.After(from) {
		respondError(w, http.StatusBadRequest, "'to' must be after 'from'")
		return
	}

	load := func() (interface{}, error) {
		return h.orders.ListOrders(r.Context(), from, to)
	}

	var orders []contracts.PendingOrder
	if h.cache != nil {
		key := redis.OrdersKey(from.Format(time.RFC3339), to.Format(time.RFC3339))
		err = h.cache.GetOrSet(r.Context(), key, &orders, redis.TTLShort, load)
	} else {
		var value interface{}
		if value, err = load(); err == nil {
			orders = value.([]contracts.PendingOrder)
		}
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	respondJSON(w, http.StatusOK, OrdersResponse{
		From:   from.Format(time.RFC3339),
		To:     to.Format(time.RFC3339),
		Orders: orders,
		Count:  len(orders),
	})
}

// GetRanking returns the journaled ranking of a rebalance date
// GET /api/ranking?date=YYYY-MM-DD (기본: 최근 리밸런싱 날짜)
func (h *RebalanceHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	if h.rankings == nil {
		respondError(w, http.StatusServiceUnavailable, "Ranking storage not configured")
		return
	}

	fallback := h.engine.Snapshot().Target.Date
	date, err := parseTime(r.URL.Query().Get("date"), fallback, h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}
	if date.IsZero() {
		respondError(w, http.StatusNotFound, "No rebalance has run yet")
		return
	}

	ranked, err := h.rankings.GetRanking(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get ranking")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve ranking")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date.Format(dateLayout),
		"ranking": ranked,
	})
}

// TickRequest optionally pins the tick time
type TickRequest struct {
	At string `json:"at"` // RFC3339 or YYYY-MM-DD, 비어 있으면 현재 시각
}

// RunTick triggers one tick out of schedule
// POST /api/tick
func (h *RebalanceHandler) RunTick(w http.ResponseWriter, r *http.Request) {
	var req TickRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	at, err := parseTime(req.At, h.now(), h.loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'at' format (expected RFC3339 or YYYY-MM-DD)")
		return
	}

	h.logger.WithField("at", at.Format(time.RFC3339)).Info("Tick triggered via API")

	result, err := h.engine.RunTick(r.Context(), at)
	if errors.Is(err, brain.ErrTickInProgress) {
		respondError(w, http.StatusConflict, "Tick already in progress")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Tick failed")
		if result != nil {
			// 날짜는 소비됨, 알림만 실패
			respondJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":  err.Error(),
				"result": result,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "Tick failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
