// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package yahoo provides a client for fetching daily price history from the
// Yahoo Finance chart API.
//
// The chart API does not require an API key. Yahoo sets session cookies on
// the first response, so the client carries a cookie jar.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/publicsuffix"
)

const (
	// defaultBaseURL is the Yahoo Finance chart API base URL.
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	// defaultUserAgent is sent with every request. Yahoo rejects requests without a browser-like agent.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	// defaultTimeout is the HTTP timeout when no client is supplied.
	defaultTimeout = 20 * time.Second
)

// Bar is a single daily bar.
type Bar struct {
	// Time is the start of the trading session.
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// Chart is the daily price history for a symbol.
type Chart struct {
	Symbol   string
	Currency string
	// Bars are in ascending time order. Sessions without a close are omitted.
	Bars []Bar
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

// Client is the interface for fetching price history.
type Client interface {
	// GetChart fetches daily bars for the symbol over the range.
	//
	// chartRange is a Yahoo range such as "1d", "5d", "1mo", "1y", "ytd", or "max".
	GetChart(ctx context.Context, symbol string, chartRange string) (*Chart, error)
}

// ClientOption is an option for a new Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client. The client's cookie jar is left as-is.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *client) {
		client.httpClient = httpClient
	}
}

// ClientWithBaseURL overrides the chart API base URL.
func ClientWithBaseURL(baseURL string) ClientOption {
	return func(client *client) {
		client.baseURL = baseURL
	}
}

// ClientWithUserAgent overrides the User-Agent header.
func ClientWithUserAgent(userAgent string) ClientOption {
	return func(client *client) {
		client.userAgent = userAgent
	}
}

// NewClient creates a new Client.
func NewClient(options ...ClientOption) (Client, error) {
	client := &client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
	}
	for _, option := range options {
		option(client)
	}
	if client.httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		client.httpClient = &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		}
	}
	return client, nil
}

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func (c *client) GetChart(ctx context.Context, symbol string, chartRange string) (*Chart, error) {
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	query := url.Values{}
	query.Set("range", chartRange)
	query.Set("interval", "1d")
	query.Set("events", "history")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	var chartResp chartResponse
	if err := json.Unmarshal(body, &chartResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", chartResp.Chart.Error.Code, chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result for %s", symbol)
	}
	return newChart(symbol, chartResp.Chart.Result[0])
}

// *** PRIVATE ***

// chartResponse is the JSON response from the chart API.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func newChart(symbol string, result chartResult) (*Chart, error) {
	chart := &Chart{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
	}
	if chart.Symbol == "" {
		chart.Symbol = symbol
	}
	if len(result.Indicators.Quote) == 0 {
		return chart, nil
	}
	quote := result.Indicators.Quote[0]
	for i, timestamp := range result.Timestamp {
		closePrice := floatAt(quote.Close, i)
		if closePrice == nil {
			continue
		}
		bar := Bar{
			Time:  time.Unix(timestamp, 0).UTC(),
			Close: decimal.NewFromFloat(*closePrice),
		}
		if value := floatAt(quote.Open, i); value != nil {
			bar.Open = decimal.NewFromFloat(*value)
		}
		if value := floatAt(quote.High, i); value != nil {
			bar.High = decimal.NewFromFloat(*value)
		}
		if value := floatAt(quote.Low, i); value != nil {
			bar.Low = decimal.NewFromFloat(*value)
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		chart.Bars = append(chart.Bars, bar)
	}
	return chart, nil
}

func floatAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
