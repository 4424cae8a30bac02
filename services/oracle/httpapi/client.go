// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/sonar/services/oracle"
)

var tracer = otel.Tracer("sonar.oracle.client")

// Client talks to a remote oracle server over HTTP.
//
// Description:
//
//	Client implements oracle.Oracle against the /v1/oracle endpoints,
//	so a solver can run unchanged against a remote secret. A token
//	bucket limiter paces probes to avoid hammering shared oracles;
//	the default is unlimited.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (10 second timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps outgoing probes at rps requests per second with
// the given burst. Zero or negative rps means unlimited.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for the oracle server at baseURL.
//
// Inputs:
//   - baseURL: Server base URL, e.g. "http://localhost:12280"
//   - opts: Optional overrides
//
// Outputs:
//   - *Client: Ready-to-use client
//   - error: Non-nil if baseURL is empty
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL must not be empty", ErrOracleUnreachable)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	slog.Debug("Initialized oracle client", "base_url", baseURL)
	return c, nil
}

// Evaluate implements oracle.Oracle over HTTP.
//
// Description:
//
//	Scores a guess via POST /v1/oracle/evaluate. The remote answer
//	keeps the local encoding: match count for a well-formed guess of
//	the right length, -2 for a wrong-length guess, -1 for a malformed
//	one. A closed remote oracle maps back to oracle.ErrOracleClosed
//	so errors.Is works the same against both backends.
func (c *Client) Evaluate(ctx context.Context, guess string) (int, error) {
	ctx, span := tracer.Start(ctx, "Client.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int("oracle.guess_length", len(guess)))

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	var out EvaluateResponse
	if err := c.postJSON(ctx, "/v1/oracle/evaluate", EvaluateRequest{Guess: guess}, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("oracle.matches", out.Matches))
	return out.Matches, nil
}

// Rotate installs a new secret on the remote oracle.
func (c *Client) Rotate(ctx context.Context, secret string) (RotateResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.Rotate")
	defer span.End()

	var out RotateResponse
	if err := c.postJSON(ctx, "/v1/oracle/rotate", RotateRequest{Secret: secret}, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RotateResponse{}, err
	}
	return out, nil
}

// Health fetches the remote oracle's health and query statistics.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.Health")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/oracle/health", nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("failed to create health request: %w", err)
	}

	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return HealthResponse{}, err
	}
	return out, nil
}

// postJSON sends a JSON POST and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes the request and maps transport and status failures onto
// the package error taxonomy.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Oracle API call failed", "url", req.URL.String(), "error", err)
		return fmt.Errorf("%w: %w", ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrBadResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jerr := json.Unmarshal(respBody, &errResp); jerr == nil && errResp.Error != "" {
			if errResp.Code == "ORACLE_CLOSED" {
				return fmt.Errorf("%w: %s", oracle.ErrOracleClosed, errResp.Error)
			}
			return fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, errResp.Error)
		}
		slog.Error("Oracle returned an error", "status_code", resp.StatusCode, "response", string(respBody))
		return fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %w", ErrBadResponse, err)
	}
	return nil
}
