package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/internal/calendar"
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/pkg/logger"
)

func newTestScheduler(t *testing.T) (*Scheduler, *time.Location) {
	t.Helper()

	cal, err := calendar.NewWeekdayCalendar("America/New_York", "09:30", nil)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := NewScheduler(cal, DefaultSchedulerConfig(), logger.Nop())
	s.now = func() time.Time { return time.Date(2006, 2, 5, 18, 0, 0, 0, loc) }
	return s, loc
}

func handles(symbols ...contracts.Symbol) map[contracts.Symbol]contracts.SecurityHandle {
	m := make(map[contracts.Symbol]contracts.SecurityHandle, len(symbols))
	for _, s := range symbols {
		m[s] = contracts.SecurityHandle{Symbol: s, Market: "usa", Exchange: "NYSE"}
	}
	return m
}

func TestScheduler_Schedule(t *testing.T) {
	s, loc := newTestScheduler(t)

	// 2006-02-05 (일) → 다음 개장 2006-02-06 (월) 09:30
	asOf := time.Date(2006, 2, 5, 18, 0, 0, 0, loc)
	diff := portfolio.Diff{
		Sell: []contracts.Symbol{"Z"},
		Buy:  []contracts.Symbol{"W", "V"},
	}

	orders := s.Schedule(asOf, diff, 10, handles("Z", "W", "V"))
	require.Len(t, orders, 3)

	sell := orders[0]
	assert.Equal(t, contracts.ActionSell, sell.Action)
	assert.Equal(t, contracts.Symbol("Z"), sell.Symbol)
	assert.Equal(t, 60, sell.MinutesAfterOpen)
	assert.Equal(t, time.Date(2006, 2, 6, 10, 30, 0, 0, loc), sell.TriggerAt)
	assert.Equal(t, time.Date(2006, 2, 6, 0, 0, 0, 0, loc), sell.TriggerDate)
	assert.True(t, sell.SizingFraction.IsZero())

	for _, buy := range orders[1:] {
		assert.Equal(t, contracts.ActionBuy, buy.Action)
		assert.Equal(t, 90, buy.MinutesAfterOpen)
		assert.Equal(t, time.Date(2006, 2, 6, 11, 0, 0, 0, loc), buy.TriggerAt)
		assert.Equal(t, "0.095", buy.SizingFraction.String())
		assert.True(t, sell.TriggerAt.Before(buy.TriggerAt))
	}
	assert.Equal(t, contracts.Symbol("W"), orders[1].Symbol)
	assert.Equal(t, contracts.Symbol("V"), orders[2].Symbol)

	assert.NotEqual(t, orders[1].ID, orders[2].ID)
}

func TestScheduler_ZeroTargetSize(t *testing.T) {
	s, loc := newTestScheduler(t)

	diff := portfolio.Diff{
		Sell: []contracts.Symbol{"X"},
		Buy:  []contracts.Symbol{"A", "B"},
	}

	orders := s.Schedule(time.Date(2006, 2, 6, 8, 0, 0, 0, loc), diff, 0, handles("X", "A", "B"))
	assert.Equal(t, 0, contracts.CountOrders(orders, contracts.ActionBuy))
	assert.Equal(t, 1, contracts.CountOrders(orders, contracts.ActionSell))

	orders = s.Schedule(time.Date(2006, 2, 6, 8, 0, 0, 0, loc), diff, -3, handles("X", "A", "B"))
	assert.Equal(t, 0, contracts.CountOrders(orders, contracts.ActionBuy))
}

func TestScheduler_MissingHandleSkipped(t *testing.T) {
	s, loc := newTestScheduler(t)

	diff := portfolio.Diff{
		Sell: []contracts.Symbol{"X", "Y"},
		Buy:  []contracts.Symbol{"A", "B"},
	}

	orders := s.Schedule(time.Date(2006, 2, 6, 8, 0, 0, 0, loc), diff, 2, handles("Y", "A"))
	require.Len(t, orders, 2)
	assert.Equal(t, contracts.Symbol("Y"), orders[0].Symbol)
	assert.Equal(t, contracts.Symbol("A"), orders[1].Symbol)
	assert.Equal(t, "0.475", orders[1].SizingFraction.String())
}

func TestScheduler_SameDayMidnight(t *testing.T) {
	s, loc := newTestScheduler(t)

	// 거래일 장중 호출: 당일 자정 기준이므로 당일 개장이 선택됨
	asOf := time.Date(2006, 2, 7, 12, 0, 0, 0, loc)
	orders := s.Schedule(asOf, portfolio.Diff{Buy: []contracts.Symbol{"A"}}, 1, handles("A"))

	require.Len(t, orders, 1)
	assert.Equal(t, time.Date(2006, 2, 7, 11, 0, 0, 0, loc), orders[0].TriggerAt)
	assert.Equal(t, "0.95", orders[0].SizingFraction.String())
}

func TestScheduler_EmptyDiff(t *testing.T) {
	s, loc := newTestScheduler(t)

	orders := s.Schedule(time.Date(2006, 2, 6, 0, 0, 0, 0, loc), portfolio.Diff{}, 10, nil)
	assert.Empty(t, orders)
}
