package execution

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
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/config"
	"github.com/wonny/rebalancer/pkg/httputil"
	"github.com/wonny/rebalancer/pkg/logger"
	"github.com/wonny/rebalancer/pkg/redis"
)

type recordingSink struct {
	batches [][]contracts.PendingOrder
	err     error
}

func (s *recordingSink) Dispatch(_ context.Context, orders []contracts.PendingOrder) error {
	s.batches = append(s.batches, orders)
	return s.err
}

func sampleOrders() []contracts.PendingOrder {
	return []contracts.PendingOrder{
		{
			ID:               uuid.New(),
			Symbol:           "A",
			Handle:           contracts.SecurityHandle{Symbol: "A", Market: "usa", Exchange: "NYSE"},
			Action:           contracts.ActionBuy,
			MinutesAfterOpen: 90,
			SizingFraction:   decimal.RequireFromString("0.095"),
		},
	}
}

func TestMultiSink_Dispatch(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("boom")}

	m := NewMultiSink(ok, nil, failing)
	assert.Equal(t, 2, m.Len())

	err := m.Dispatch(context.Background(), sampleOrders())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// 실패와 무관하게 모든 싱크가 호출됨
	assert.Len(t, ok.batches, 1)
	assert.Len(t, failing.batches, 1)
}

func TestLogSink_Dispatch(t *testing.T) {
	var buf strings.Builder
	s := NewLogSink(logger.NewWithWriter(&buf, "info", "production"))

	require.NoError(t, s.Dispatch(context.Background(), sampleOrders()))
	assert.Contains(t, buf.String(), "Pending order")
	assert.Contains(t, buf.String(), `"sizing_fraction":"0.095"`)
}

func TestHTTPSink_Dispatch(t *testing.T) {
	var received dispatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := httputil.New(logger.Nop(), time.Second).DisableRetry().WithRateLimit(100, 1)
	s := NewHTTPSink(client, server.URL, logger.Nop())

	require.NoError(t, s.Dispatch(context.Background(), sampleOrders()))
	require.Len(t, received.Orders, 1)
	assert.Equal(t, contracts.Symbol("A"), received.Orders[0].Symbol)
	assert.Equal(t, "0.095", received.Orders[0].SizingFraction.String())

	// 빈 배치는 전송하지 않음
	require.NoError(t, s.Dispatch(context.Background(), nil))
}

func TestHTTPSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadRequest)
	}))
	defer server.Close()

	client := httputil.New(logger.Nop(), time.Second).DisableRetry()
	s := NewHTTPSink(client, server.URL, logger.Nop())

	err := s.Dispatch(context.Background(), sampleOrders())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestHub_BroadcastsOrders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logger.Nop())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Dispatch(ctx, sampleOrders()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event OrderEvent
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, "orders_scheduled", event.Type)
	require.Len(t, event.Orders, 1)
	assert.Equal(t, contracts.ActionBuy, event.Orders[0].Action)
}

func TestHub_EmptyDispatch(t *testing.T) {
	hub := NewHub(logger.Nop())
	assert.NoError(t, hub.Dispatch(context.Background(), nil))
}

func TestCacheInvalidator_Disabled(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	sink := NewCacheInvalidator(redis.NewCache(client, "test"))
	assert.NoError(t, sink.Dispatch(context.Background(), nil))
	assert.NoError(t, sink.Dispatch(context.Background(), sampleOrders()))
}
