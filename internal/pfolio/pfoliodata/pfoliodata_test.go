// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliodata

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/bufdev/pfolio/internal/pkg/backoff"
	"github.com/bufdev/pfolio/internal/pkg/eodhd"
	"github.com/bufdev/pfolio/internal/pkg/yahoo"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestYahooSourceRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	client := &fakeYahooClient{
		errs: []error{
			&yahoo.StatusError{StatusCode: http.StatusServiceUnavailable},
			&yahoo.StatusError{StatusCode: http.StatusTooManyRequests},
		},
		chart: newTestChart("AAPL", "185.64", "181.91"),
	}
	source := NewYahooSource(slog.New(slog.DiscardHandler), client, testSourceOptions()...)
	price, err := source.GetLatestPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("181.91").Equal(price))
	require.Equal(t, 3, client.calls)
	require.Equal(t, []string{"1d", "1d", "1d"}, client.ranges)
}

func TestYahooSourceStopsOnPermanentError(t *testing.T) {
	t.Parallel()
	client := &fakeYahooClient{
		errs: []error{&yahoo.StatusError{StatusCode: http.StatusNotFound}},
	}
	source := NewYahooSource(slog.New(slog.DiscardHandler), client, testSourceOptions()...)
	_, err := source.GetLatestPrice(context.Background(), "NOPE")
	var statusErr *yahoo.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.ErrorContains(t, err, "yahoo: downloading NOPE")
	require.Equal(t, 1, client.calls)
}

func TestYahooSourceExhaustsRetries(t *testing.T) {
	t.Parallel()
	transient := &yahoo.StatusError{StatusCode: http.StatusBadGateway}
	client := &fakeYahooClient{
		errs: []error{transient, transient, transient, transient},
	}
	source := NewYahooSource(slog.New(slog.DiscardHandler), client, testSourceOptions()...)
	_, err := source.DownloadTickerData(context.Background(), "AAPL", Period1Month)
	require.ErrorContains(t, err, "failed after 3 attempts")
	require.Equal(t, 3, client.calls)
}

func TestSourceCachesSeries(t *testing.T) {
	t.Parallel()
	client := &fakeYahooClient{chart: newTestChart("AAPL", "1", "2")}
	source := NewYahooSource(
		slog.New(slog.DiscardHandler),
		client,
		append(testSourceOptions(), SourceWithCacheTTL(time.Hour))...,
	)
	_, err := source.DownloadTickerData(context.Background(), "AAPL", Period1Month)
	require.NoError(t, err)
	series, err := source.DownloadTickerData(context.Background(), "AAPL", Period1Month)
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.Equal(t, 1, client.calls)
	_, err = source.DownloadTickerData(context.Background(), "AAPL", Period1Year)
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
}

func TestDownloadHistoricalDataDeduplicates(t *testing.T) {
	t.Parallel()
	client := &fakeYahooClient{chart: newTestChart("X", "1", "2", "3")}
	source := NewYahooSource(slog.New(slog.DiscardHandler), client, testSourceOptions()...)
	result, err := source.DownloadHistoricalData(context.Background(), []string{"AAPL", "MSFT", "AAPL"}, Period5Days)
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Len(t, result["AAPL"], 3)
	require.Equal(t, 2, client.calls)
}

func TestDownloadHistoricalDataPartialFailure(t *testing.T) {
	t.Parallel()
	client := &fakeYahooClient{
		chart:      newTestChart("X", "1"),
		failTicker: "BAD",
	}
	source := NewYahooSource(slog.New(slog.DiscardHandler), client, testSourceOptions()...)
	result, err := source.DownloadHistoricalData(context.Background(), []string{"BAD", "GOOD"}, Period1Day)
	require.ErrorContains(t, err, "BAD")
	require.Len(t, result, 1)
	require.Contains(t, result, "GOOD")
}

func TestEmptySeriesIsNoData(t *testing.T) {
	t.Parallel()
	source := NewYahooSource(slog.New(slog.DiscardHandler), &fakeYahooClient{chart: &yahoo.Chart{}}, testSourceOptions()...)
	_, err := source.GetLatestPrice(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrNoData)
}

func TestGetSecuritiesNotImplemented(t *testing.T) {
	t.Parallel()
	source := NewYahooSource(slog.New(slog.DiscardHandler), &fakeYahooClient{}, testSourceOptions()...)
	_, err := source.GetSecurities(context.Background())
	require.ErrorIs(t, err, ErrNotImplemented)
	require.Equal(t, YahooSourceName, source.Name())
}

func TestEODHDSource(t *testing.T) {
	t.Parallel()
	client := &fakeEODHDClient{
		eods: []eodhd.EOD{
			{Date: xtime.Date{Year: 2024, Month: 1, Day: 2}, Close: decimal.NewFromInt(10)},
			{Date: xtime.Date{Year: 2024, Month: 1, Day: 3}, Close: decimal.NewFromInt(11)},
			{Date: xtime.Date{Year: 2024, Month: 1, Day: 4}, Close: decimal.NewFromInt(12)},
		},
	}
	source := NewEODHDSource(
		slog.New(slog.DiscardHandler),
		client,
		"",
		append(
			testSourceOptions(),
			SourceWithClock(func() time.Time { return time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC) }),
		)...,
	)
	price, err := source.GetLatestPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(12).Equal(price))
	require.Equal(t, "AAPL.US", client.ticker)
	require.Equal(t, xtime.Date{Year: 2023, Month: 12, Day: 29}, client.from)
	require.Equal(t, xtime.Date{Year: 2024, Month: 1, Day: 5}, client.to)

	series, err := source.DownloadTickerData(context.Background(), "VOD.LSE", PeriodMax)
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, "VOD.LSE", client.ticker)
	require.True(t, client.from.IsZero())
	require.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), series[0].Date)
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()
	for _, period := range AllPeriods() {
		parsed, err := ParsePeriod(string(period))
		require.NoError(t, err)
		require.Equal(t, period, parsed)
	}
	parsed, err := ParsePeriod("1MO")
	require.NoError(t, err)
	require.Equal(t, Period1Month, parsed)
	_, err = ParsePeriod("2w")
	require.ErrorContains(t, err, "unknown period")
}

func TestPeriodStart(t *testing.T) {
	t.Parallel()
	today := xtime.Date{Year: 2024, Month: 3, Day: 31}
	require.Equal(t, xtime.Date{Year: 2024, Month: 2, Day: 29}, Period1Month.Start(today))
	require.Equal(t, xtime.Date{Year: 2023, Month: 3, Day: 31}, Period1Year.Start(today))
	require.Equal(t, xtime.Date{Year: 2024, Month: 1, Day: 1}, PeriodYTD.Start(today))
	require.True(t, PeriodMax.Start(today).IsZero())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	require.True(t, isRetryable(&eodhd.StatusError{StatusCode: http.StatusInternalServerError}))
	require.False(t, isRetryable(&eodhd.StatusError{StatusCode: http.StatusUnauthorized}))
	require.True(t, isRetryable(&testNetError{}))
	require.False(t, isRetryable(context.Canceled))
	require.False(t, isRetryable(errors.New("parsing response")))
}

func testSourceOptions() []SourceOption {
	return []SourceOption{
		SourceWithRetryPolicy(backoff.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
		SourceWithRateLimit(0, 0),
		SourceWithCacheTTL(0),
	}
}

func newTestChart(symbol string, closes ...string) *yahoo.Chart {
	chart := &yahoo.Chart{Symbol: symbol, Currency: "USD"}
	start := time.Date(2024, time.January, 2, 14, 30, 0, 0, time.UTC)
	for i, closePrice := range closes {
		chart.Bars = append(chart.Bars, yahoo.Bar{
			Time:  start.AddDate(0, 0, i),
			Close: decimal.RequireFromString(closePrice),
		})
	}
	return chart
}

type fakeYahooClient struct {
	errs       []error
	chart      *yahoo.Chart
	failTicker string
	calls      int
	ranges     []string
}

func (c *fakeYahooClient) GetChart(_ context.Context, symbol string, chartRange string) (*yahoo.Chart, error) {
	c.calls++
	c.ranges = append(c.ranges, chartRange)
	if symbol == c.failTicker {
		return nil, &yahoo.StatusError{StatusCode: http.StatusNotFound}
	}
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return nil, err
	}
	return c.chart, nil
}

type fakeEODHDClient struct {
	eods   []eodhd.EOD
	ticker string
	from   xtime.Date
	to     xtime.Date
}

func (c *fakeEODHDClient) GetEOD(_ context.Context, ticker string, from xtime.Date, to xtime.Date) ([]eodhd.EOD, error) {
	c.ticker = ticker
	c.from = from
	c.to = to
	return c.eods, nil
}

type testNetError struct{}

func (*testNetError) Error() string   { return "connection reset" }
func (*testNetError) Timeout() bool   { return false }
func (*testNetError) Temporary() bool { return true }
