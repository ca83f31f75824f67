// Package gateway talks to the hosted Mothman Market backend: a
// PostgREST-style relational endpoint for reads, four remote
// procedures for every state mutation, and a websocket stream of
// per-table change notifications.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound marks a single-row lookup that matched nothing. Views
// render it as a normal UI state ("Bet not found."), not a failure.
var ErrNotFound = errors.New("gateway: row not found")

// Table names owned by the backend.
const (
	TableBets         = "bets"
	TablePriceHistory = "price_history"
	TableProfiles     = "profiles"
	TableTransactions = "transactions"
)

// Client is the HTTP client for the remote data gateway. All state
// mutation goes through the remote procedures; the only direct write
// is profile creation during signup.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// New creates a gateway client. baseURL is the REST root (no trailing
// slash needed); anonKey is sent as both apikey and bearer token.
func New(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// get fetches rows from a table endpoint into out.
func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

// insert posts rows to a table endpoint.
func (c *Client) insert(ctx context.Context, table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// rpc invokes a named remote procedure. out may be nil when the
// procedure returns nothing of interest.
func (c *Client) rpc(ctx context.Context, name string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	u := fmt.Sprintf("%s/rpc/%s", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	req.Header.Set("Accept", "application/json")
}

// statusError reduces a non-2xx response to an error carrying the
// backend's message when one is present.
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, apiErr.Message)
	}
	slog.Debug("gateway_error_body", "status", resp.StatusCode, "body", string(raw))
	return fmt.Errorf("unexpected status: %d", resp.StatusCode)
}
