package execution

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/pkg/httputil"
	"github.com/wonny/rebalancer/pkg/logger"
)

// HTTPSink posts pending orders to an external scheduling service
type HTTPSink struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// dispatchRequest is the body sent to the scheduling service
type dispatchRequest struct {
	Orders []contracts.PendingOrder `json:"orders"`
}

// NewHTTPSink creates a sink posting to url
// The client should already carry its rate limit.
func NewHTTPSink(client *httputil.Client, url string, log *logger.Logger) *HTTPSink {
	return &HTTPSink{
		client: client,
		url:    url,
		logger: log.WithComponent("http_sink"),
	}
}

// Dispatch implements contracts.OrderSink
func (s *HTTPSink) Dispatch(ctx context.Context, orders []contracts.PendingOrder) error {
	if len(orders) == 0 {
		return nil
	}

	resp, err := s.client.PostJSON(ctx, s.url, dispatchRequest{Orders: orders})
	if err != nil {
		return fmt.Errorf("post orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post orders: status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.WithFields(map[string]interface{}{
		"orders": len(orders),
		"status": resp.StatusCode,
	}).Info("Orders handed off")

	return nil
}
