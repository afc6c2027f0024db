package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingOrder is a deferred action handed to the execution collaborator
// ⭐ SSOT: Scheduler → OrderSink 지연 주문 전달
// The core does not track it after hand-off.
type PendingOrder struct {
	ID               uuid.UUID       `json:"id"`
	Symbol           Symbol          `json:"symbol"`
	Handle           SecurityHandle  `json:"handle"`
	Action           Action          `json:"action"`
	TriggerDate      time.Time       `json:"trigger_date"`       // market-open date
	MinutesAfterOpen int             `json:"minutes_after_open"` // offset from the open
	TriggerAt        time.Time       `json:"trigger_at"`         // open + offset
	SizingFraction   decimal.Decimal `json:"sizing_fraction"`    // BUY only, fraction of equity
	CreatedAt        time.Time       `json:"created_at"`
}

// Action is the kind of deferred order
type Action string

const (
	ActionSell Action = "SELL" // 전량 청산
	ActionBuy  Action = "BUY"  // 목표 비중 매수
)

// IsBuy checks if the order allocates capital
func (o *PendingOrder) IsBuy() bool {
	return o.Action == ActionBuy
}

// IsSell checks if the order liquidates a position
func (o *PendingOrder) IsSell() bool {
	return o.Action == ActionSell
}

// CountOrders counts orders by action
func CountOrders(orders []PendingOrder, action Action) int {
	count := 0
	for _, order := range orders {
		if order.Action == action {
			count++
		}
	}
	return count
}
