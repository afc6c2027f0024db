package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/internal/api/handlers"
	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

type fakeEngine struct {
	snapshot brain.Snapshot
	result   *brain.TickResult
	err      error
	ticks    []time.Time
}

func (f *fakeEngine) Snapshot() brain.Snapshot { return f.snapshot }

func (f *fakeEngine) RunTick(_ context.Context, now time.Time) (*brain.TickResult, error) {
	f.ticks = append(f.ticks, now)
	return f.result, f.err
}

type fakeOrders struct {
	orders   []contracts.PendingOrder
	from, to time.Time
}

func (f *fakeOrders) ListOrders(_ context.Context, from, to time.Time) ([]contracts.PendingOrder, error) {
	f.from, f.to = from, to
	return f.orders, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRouter(engine *fakeEngine, orders handlers.OrderLister) http.Handler {
	log := logger.Nop()
	return NewRouter(RouterDeps{
		Rebalance: handlers.NewRebalanceHandler(engine, orders, nil, nil, time.UTC, log),
	}, log)
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(t, newTestRouter(&fakeEngine{}, nil), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_Schedule(t *testing.T) {
	next := date(2007, 2, 4)
	engine := &fakeEngine{snapshot: brain.Snapshot{
		StrategyID:     "value_rebalance_us",
		RemainingDates: []time.Time{next, date(2008, 2, 4)},
		NextRebalance:  &next,
	}}

	rec := serve(t, newTestRouter(engine, nil), http.MethodGet, "/api/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.NotNil(t, resp.NextRebalance)
	assert.True(t, next.Equal(*resp.NextRebalance))
}

func TestRouter_Target(t *testing.T) {
	engine := &fakeEngine{snapshot: brain.Snapshot{
		StrategyID: "value_rebalance_us",
		Target:     contracts.TargetPortfolio{Date: date(2006, 2, 4), Symbols: []contracts.Symbol{"C", "A"}},
	}}

	rec := serve(t, newTestRouter(engine, nil), http.MethodGet, "/api/target", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap brain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, []contracts.Symbol{"C", "A"}, snap.Target.Symbols)
}

func TestRouter_Tick(t *testing.T) {
	engine := &fakeEngine{result: &brain.TickResult{Target: []contracts.Symbol{"A"}}}
	router := newTestRouter(engine, nil)

	rec := serve(t, router, http.MethodPost, "/api/tick", `{"at":"2006-02-05T18:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.ticks, 1)
	assert.True(t, time.Date(2006, 2, 5, 18, 0, 0, 0, time.UTC).Equal(engine.ticks[0]))

	rec = serve(t, router, http.MethodPost, "/api/tick", `{"at":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/tick", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_TickErrors(t *testing.T) {
	tests := []struct {
		name   string
		result *brain.TickResult
		err    error
		status int
	}{
		{name: "busy", err: brain.ErrTickInProgress, status: http.StatusConflict},
		{name: "failed before selection", err: errors.New("load candidates"), status: http.StatusInternalServerError},
		{name: "notification failed", result: &brain.TickResult{}, err: errors.New("sink down"), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{result: tt.result, err: tt.err}
			rec := serve(t, newTestRouter(engine, nil), http.MethodPost, "/api/tick", "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_Orders(t *testing.T) {
	orders := &fakeOrders{orders: []contracts.PendingOrder{
		{ID: uuid.New(), Symbol: "X", Action: contracts.ActionSell},
	}}
	router := newTestRouter(&fakeEngine{}, orders)

	rec := serve(t, router, http.MethodGet, "/api/orders?from=2006-02-01&to=2006-03-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.OrdersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.True(t, date(2006, 2, 1).Equal(orders.from))
	assert.True(t, date(2006, 3, 1).Equal(orders.to))

	rec = serve(t, router, http.MethodGet, "/api/orders?from=2006-03-01&to=2006-02-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_OptionalStorage(t *testing.T) {
	router := newTestRouter(&fakeEngine{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, router, http.MethodGet, "/api/orders", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, router, http.MethodGet, "/api/ranking", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodGet, "/ws/orders", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodGet, "/api/jobs", "").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
