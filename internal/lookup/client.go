// Package lookup implements the client for the external leak-lookup service.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leaksift/internal/core"
	"leaksift/internal/monitoring"
)

// maxResponseBytes bounds how much of an upstream body is read. Responses for
// broad queries can be large, but not unbounded.
const maxResponseBytes = 32 << 20 // 32 MiB

// request is the fixed envelope the lookup service expects.
type request struct {
	Token   string `json:"token"`
	Request string `json:"request"`
	Lang    string `json:"lang"`
}

// Config holds the lookup service settings.
type Config struct {
	// URL is the fixed endpoint of the lookup service.
	URL string
	// Token is the API credential sent with every request.
	Token string
	// Lang is the language code for upstream result text.
	Lang string
	// Timeout bounds the whole call, connect through body read.
	Timeout time.Duration
}

// Client performs lookup calls. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a lookup client with the given settings.
func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Lookup sends one query to the lookup service and returns the raw response
// body. Transport errors, timeouts, and non-success statuses are reported as
// *core.UpstreamError; nothing is retried here.
func (c *Client) Lookup(ctx context.Context, query string) ([]byte, error) {
	body, err := json.Marshal(request{
		Token:   c.cfg.Token,
		Request: query,
		Lang:    c.cfg.Lang,
	})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	monitoring.LookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.LookupsTotal.WithLabelValues("failure").Inc()
		return nil, &core.UpstreamError{Reason: "transport", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then fail.
		io.CopyN(io.Discard, resp.Body, 4096)
		monitoring.LookupsTotal.WithLabelValues("failure").Inc()
		return nil, &core.UpstreamError{Status: resp.StatusCode, Reason: "status"}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		monitoring.LookupsTotal.WithLabelValues("failure").Inc()
		return nil, &core.UpstreamError{Reason: "transport", Err: fmt.Errorf("read body: %w", err)}
	}

	monitoring.LookupsTotal.WithLabelValues("success").Inc()
	return raw, nil
}
