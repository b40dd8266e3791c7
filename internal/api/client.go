package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request to the trading server.
const DefaultTimeout = 30 * time.Second

// TokenRefresher is a function that returns a fresh session token.
// It's called when the server returns 401 Unauthorized.
type TokenRefresher func() (string, error)

// Client handles HTTP requests to the trading server.
type Client struct {
	BaseURL        string
	AuthToken      string
	HTTPClient     *http.Client
	TokenRefresher TokenRefresher // Optional: called on 401 to get fresh token
}

// NewClient creates a new API client with the given base URL and session token.
// An empty token sends no Authorization header.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		AuthToken: authToken,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithTokenRefresher sets a token refresher function that will be called on 401.
func (c *Client) WithTokenRefresher(refresher TokenRefresher) *Client {
	c.TokenRefresher = refresher
	return c
}

// Post performs a POST request to the specified path with the given body.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// do performs an HTTP request with auth header injection.
// On 401 it asks the TokenRefresher for a token and retries once, but only
// when the refresher returns a different token.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	// Buffer body if present so we can retry
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	// One ID per logical request, shared by the 401 retry.
	requestID := uuid.NewString()

	resp, err := c.doOnce(ctx, method, path, bodyBytes, requestID)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || c.TokenRefresher == nil {
		return resp, nil
	}

	newToken, refreshErr := c.TokenRefresher()
	if refreshErr != nil || newToken == "" || newToken == c.AuthToken {
		// Nothing new to try; the caller sees the original 401.
		return resp, nil
	}

	_ = resp.Body.Close()
	c.AuthToken = newToken
	return c.doOnce(ctx, method, path, bodyBytes, requestID)
}

// doOnce performs a single HTTP request.
func (c *Client) doOnce(ctx context.Context, method, path string, bodyBytes []byte, requestID string) (*http.Response, error) {
	url := c.BaseURL + path

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
