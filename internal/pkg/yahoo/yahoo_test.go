// Copyright 2026 Peter Edge
//
// All rights reserved.

package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testChartResponse = `{
  "chart": {
    "result": [
      {
        "meta": {"symbol": "AAPL", "currency": "USD"},
        "timestamp": [1704205800, 1704292200, 1704378600],
        "indicators": {
          "quote": [
            {
              "open": [187.15, 184.22, 182.15],
              "high": [188.44, 185.88, 183.09],
              "low": [183.89, 183.43, 180.88],
              "close": [185.64, null, 181.91],
              "volume": [82488700, 58414500, 71983600]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestGetChart(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/AAPL", r.URL.Path)
		require.Equal(t, "5d", r.URL.Query().Get("range"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(testChartResponse))
	}))
	t.Cleanup(server.Close)
	client, err := NewClient(ClientWithBaseURL(server.URL))
	require.NoError(t, err)
	chart, err := client.GetChart(context.Background(), "AAPL", "5d")
	require.NoError(t, err)
	require.Equal(t, "AAPL", chart.Symbol)
	require.Equal(t, "USD", chart.Currency)
	// The null close is skipped.
	require.Len(t, chart.Bars, 2)
	require.True(t, decimal.RequireFromString("185.64").Equal(chart.Bars[0].Close))
	require.True(t, decimal.RequireFromString("187.15").Equal(chart.Bars[0].Open))
	require.Equal(t, int64(82488700), chart.Bars[0].Volume)
	require.Equal(t, time.Unix(1704378600, 0).UTC(), chart.Bars[1].Time)
	require.True(t, decimal.RequireFromString("181.91").Equal(chart.Bars[1].Close))
}

func TestGetChartStatusError(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		statusCode int
		retryable  bool
	}{
		{statusCode: http.StatusTooManyRequests, retryable: true},
		{statusCode: http.StatusBadGateway, retryable: true},
		{statusCode: http.StatusNotFound, retryable: false},
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(test.statusCode)
		}))
		client, err := NewClient(ClientWithBaseURL(server.URL))
		require.NoError(t, err)
		_, err = client.GetChart(context.Background(), "AAPL", "1d")
		server.Close()
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, test.statusCode, statusErr.StatusCode)
		require.Equal(t, test.retryable, statusErr.Retryable())
	}
}

func TestGetChartAPIError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	t.Cleanup(server.Close)
	client, err := NewClient(ClientWithBaseURL(server.URL))
	require.NoError(t, err)
	_, err = client.GetChart(context.Background(), "NOPE", "1d")
	require.ErrorContains(t, err, "symbol may be delisted")
}
