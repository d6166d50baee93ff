// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package eodhd provides a client for fetching end-of-day prices from eodhd.com.
//
// The API requires a token. See https://eodhd.com/financial-apis/api-for-historical-data-and-volumes.
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

const (
	// defaultBaseURL is the eodhd.com API base URL.
	defaultBaseURL = "https://eodhd.com/api"
	// defaultTimeout is the HTTP timeout when no client is supplied.
	defaultTimeout = 20 * time.Second
)

// EOD is a single end-of-day bar.
type EOD struct {
	Date          xtime.Date      `json:"date"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
	Volume        int64           `json:"volume"`
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client is the interface for fetching end-of-day prices.
type Client interface {
	// GetEOD fetches daily bars for the ticker between from and to, inclusive.
	//
	// The ticker includes the exchange suffix, for example "AAPL.US".
	// A zero from or to leaves that bound open.
	GetEOD(ctx context.Context, ticker string, from xtime.Date, to xtime.Date) ([]EOD, error)
}

// ClientOption is an option for a new Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *client) {
		client.httpClient = httpClient
	}
}

// ClientWithBaseURL overrides the API base URL.
func ClientWithBaseURL(baseURL string) ClientOption {
	return func(client *client) {
		client.baseURL = baseURL
	}
}

// NewClient creates a new Client for the API token.
func NewClient(apiToken string, options ...ClientOption) Client {
	client := &client{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

type client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

func (c *client) GetEOD(ctx context.Context, ticker string, from xtime.Date, to xtime.Date) ([]EOD, error) {
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}
	if c.apiToken == "" {
		return nil, errors.New("eodhd API token is required")
	}
	query := url.Values{}
	query.Set("fmt", "json")
	query.Set("api_token", c.apiToken)
	if !from.IsZero() {
		query.Set("from", from.String())
	}
	if !to.IsZero() {
		query.Set("to", to.String())
	}
	reqURL := fmt.Sprintf("%s/eod/%s?%s", c.baseURL, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report the error without it.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("requesting %s: %w", ticker, urlErr.Err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var eods []EOD
	if err := json.Unmarshal(body, &eods); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return eods, nil
}
