package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/logger"
)

// MultiSink fans orders out to several sinks
// Every sink is tried; failures are joined.
type MultiSink struct {
	sinks []contracts.OrderSink
}

// NewMultiSink creates a sink over the given sinks, nil entries are dropped
func NewMultiSink(sinks ...contracts.OrderSink) *MultiSink {
	m := &MultiSink{sinks: make([]contracts.OrderSink, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of wrapped sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Dispatch implements contracts.OrderSink
func (m *MultiSink) Dispatch(ctx context.Context, orders []contracts.PendingOrder) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Dispatch(ctx, orders); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes every order to the log
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a log-only sink
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log.WithComponent("order_sink")}
}

// Dispatch implements contracts.OrderSink
func (s *LogSink) Dispatch(_ context.Context, orders []contracts.PendingOrder) error {
	for _, o := range orders {
		s.logger.WithFields(map[string]interface{}{
			"id":                 o.ID.String(),
			"symbol":             o.Symbol,
			"action":             o.Action,
			"trigger_at":         o.TriggerAt,
			"minutes_after_open": o.MinutesAfterOpen,
			"sizing_fraction":    o.SizingFraction.String(),
		}).Info("Pending order")
	}
	return nil
}
