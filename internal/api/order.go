package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

const (
	// TradePath is the order endpoint.
	TradePath = "/trade"

	// RequestIDHeader carries a per-request UUID for log correlation.
	RequestIDHeader = "X-Request-ID"

	maxResponseSize = 1 << 20
)

// PlaceOrder submits an order and reports the outcome:
//   - a body with an "error" field yields *tradeapi.OrderRejectedError;
//   - network failures and bodies that are not a JSON object wrap tradeapi.ErrTransport;
//   - any other JSON object is a success, whatever the status code.
//
// The returned response's Portfolio echo is informational; callers wait for
// the next portfolio push instead of applying it.
func (c *Client) PlaceOrder(ctx context.Context, order tradeapi.OrderRequest) (*OrderResult, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	resp, err := c.Post(ctx, TradePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tradeapi.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", tradeapi.ErrTransport, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, responseError(resp.StatusCode, trimmed, nil)
	}

	var out tradeapi.OrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, responseError(resp.StatusCode, trimmed, err)
	}

	if out.Error != "" {
		return nil, &tradeapi.OrderRejectedError{StatusCode: resp.StatusCode, Message: out.Error}
	}

	return &OrderResult{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Request.Header.Get(RequestIDHeader),
		Response:   out,
	}, nil
}

// responseError reports a body that carries no order outcome. For non-2xx
// statuses the error also wraps an *tradeapi.APIError.
func responseError(status int, body []byte, cause error) error {
	if status >= http.StatusMultipleChoices {
		apiErr := &tradeapi.APIError{StatusCode: status, Message: snippet(body)}
		return fmt.Errorf("%w: %w", tradeapi.ErrTransport, apiErr)
	}
	if cause != nil {
		return fmt.Errorf("%w: invalid response (status %d): %w", tradeapi.ErrTransport, status, cause)
	}
	return fmt.Errorf("%w: response is not a JSON object (status %d)", tradeapi.ErrTransport, status)
}

func snippet(body []byte) string {
	const maxLen = 120
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// OrderResult is a successful order submission.
type OrderResult struct {
	StatusCode int
	RequestID  string
	Response   tradeapi.OrderResponse
}
