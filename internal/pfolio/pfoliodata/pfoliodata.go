// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliodata provides market data sources.
//
// A Source returns daily price history for tickers. Every download is retried
// with exponential backoff, paced by a rate limiter, and cached in memory.
package pfoliodata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/bufdev/pfolio/internal/pkg/backoff"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// DefaultCacheTTL is the default time downloaded series are cached.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultRequestsPerSecond is the default request rate per source.
	DefaultRequestsPerSecond = 2
	// DefaultBurst is the default request burst per source.
	DefaultBurst = 1
)

var (
	// ErrNotImplemented is returned by operations a source does not support.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNoData is returned when a source has no bars for a ticker.
	ErrNoData = errors.New("no data")
)

// Period is a lookback window ending today.
type Period string

const (
	Period1Day    Period = "1d"
	Period5Days   Period = "5d"
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
	Period10Years Period = "10y"
	PeriodYTD     Period = "ytd"
	PeriodMax     Period = "max"
)

// AllPeriods returns all Periods, shortest first.
func AllPeriods() []Period {
	return []Period{
		Period1Day,
		Period5Days,
		Period1Month,
		Period3Months,
		Period6Months,
		Period1Year,
		Period2Years,
		Period5Years,
		Period10Years,
		PeriodYTD,
		PeriodMax,
	}
}

// ParsePeriod parses a Period.
func ParsePeriod(s string) (Period, error) {
	period := Period(strings.ToLower(s))
	if !slices.Contains(AllPeriods(), period) {
		periodStrings := make([]string, 0, len(AllPeriods()))
		for _, p := range AllPeriods() {
			periodStrings = append(periodStrings, string(p))
		}
		return "", fmt.Errorf("unknown period %q, must be one of: %s", s, strings.Join(periodStrings, ", "))
	}
	return period, nil
}

// Start returns the first calendar date to request for the period ending on today.
//
// Day periods are padded to cover weekends and holidays and rely on
// TradingDays to trim the result. PeriodMax returns the zero Date.
func (p Period) Start(today xtime.Date) xtime.Date {
	switch p {
	case Period1Day:
		return today.AddDays(-7)
	case Period5Days:
		return today.AddDays(-14)
	case Period1Month:
		return today.AddMonths(-1)
	case Period3Months:
		return today.AddMonths(-3)
	case Period6Months:
		return today.AddMonths(-6)
	case Period1Year:
		return today.AddMonths(-12)
	case Period2Years:
		return today.AddMonths(-24)
	case Period5Years:
		return today.AddMonths(-60)
	case Period10Years:
		return today.AddMonths(-120)
	case PeriodYTD:
		return xtime.Date{Year: today.Year, Month: time.January, Day: 1}
	default:
		return xtime.Date{}
	}
}

// TradingDays returns the number of trailing bars the period keeps, or 0 for no limit.
func (p Period) TradingDays() int {
	switch p {
	case Period1Day:
		return 1
	case Period5Days:
		return 5
	default:
		return 0
	}
}

// Bar is a single daily bar.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Series is a price history in ascending date order.
type Series []Bar

// Latest returns the last bar.
func (s Series) Latest() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Source is a market data source.
type Source interface {
	// Name returns the name of the source for diagnostics.
	Name() string
	// DownloadHistoricalData downloads the series for each distinct ticker.
	//
	// Successfully downloaded tickers are returned even if others fail.
	// The error joins the failures.
	DownloadHistoricalData(ctx context.Context, tickers []string, period Period) (map[string]Series, error)
	// DownloadTickerData downloads the series for one ticker.
	DownloadTickerData(ctx context.Context, ticker string, period Period) (Series, error)
	// GetLatestPrice returns the latest close.
	GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	// GetSecurities lists the securities the source knows about.
	//
	// No current source supports listing and all return ErrNotImplemented.
	GetSecurities(ctx context.Context) ([]string, error)
}

// SourceOption is an option for a new Source.
type SourceOption func(*sourceOptions)

// SourceWithRetryPolicy sets the retry policy. The default is backoff.DefaultPolicy.
func SourceWithRetryPolicy(policy backoff.Policy) SourceOption {
	return func(options *sourceOptions) {
		options.policy = policy
	}
}

// SourceWithRateLimit sets the request rate. A non-positive requestsPerSecond disables limiting.
func SourceWithRateLimit(requestsPerSecond float64, burst int) SourceOption {
	return func(options *sourceOptions) {
		options.requestsPerSecond = requestsPerSecond
		options.burst = burst
	}
}

// SourceWithCacheTTL sets how long downloaded series are cached. Zero disables caching.
func SourceWithCacheTTL(cacheTTL time.Duration) SourceOption {
	return func(options *sourceOptions) {
		options.cacheTTL = cacheTTL
	}
}

// SourceWithClock sets the function used for today's date.
func SourceWithClock(now func() time.Time) SourceOption {
	return func(options *sourceOptions) {
		options.now = now
	}
}

// *** PRIVATE ***

type sourceOptions struct {
	policy            backoff.Policy
	requestsPerSecond float64
	burst             int
	cacheTTL          time.Duration
	now               func() time.Time
}

func newSourceOptions() *sourceOptions {
	return &sourceOptions{
		policy:            backoff.DefaultPolicy(),
		requestsPerSecond: DefaultRequestsPerSecond,
		burst:             DefaultBurst,
		cacheTTL:          DefaultCacheTTL,
		now:               time.Now,
	}
}

// fetchFunc downloads the series for one ticker without retrying.
type fetchFunc func(ctx context.Context, ticker string, period Period) (Series, error)

type source struct {
	name    string
	logger  *slog.Logger
	fetch   fetchFunc
	policy  backoff.Policy
	limiter *rate.Limiter
	cache   *cache.Cache
}

func newSource(name string, logger *slog.Logger, fetch fetchFunc, options *sourceOptions) *source {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if options.requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.requestsPerSecond), max(options.burst, 1))
	}
	var seriesCache *cache.Cache
	if options.cacheTTL > 0 {
		seriesCache = cache.New(options.cacheTTL, 2*options.cacheTTL)
	}
	return &source{
		name:    name,
		logger:  logger,
		fetch:   fetch,
		policy:  options.policy,
		limiter: limiter,
		cache:   seriesCache,
	}
}

func (s *source) Name() string {
	return s.name
}

func (s *source) DownloadHistoricalData(ctx context.Context, tickers []string, period Period) (map[string]Series, error) {
	result := make(map[string]Series)
	var errs []error
	seen := make(map[string]struct{}, len(tickers))
	for _, ticker := range tickers {
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		series, err := s.DownloadTickerData(ctx, ticker, period)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result[ticker] = series
	}
	return result, errors.Join(errs...)
}

func (s *source) DownloadTickerData(ctx context.Context, ticker string, period Period) (Series, error) {
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}
	cacheKey := ticker + "|" + string(period)
	if s.cache != nil {
		if value, ok := s.cache.Get(cacheKey); ok {
			s.logger.Debug("series cache hit", "source", s.name, "ticker", ticker, "period", period)
			return slices.Clone(value.(Series)), nil
		}
	}
	series, err := backoff.Retry(ctx, s.policy,
		func(ctx context.Context, attempt int) (Series, bool, error) {
			if attempt > 0 {
				s.logger.Info("retrying download", "source", s.name, "ticker", ticker, "attempt", attempt+1)
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, false, err
			}
			series, err := s.fetch(ctx, ticker, period)
			if err != nil {
				retryable := isRetryable(err)
				if retryable {
					s.logger.Warn("transient download error, will retry", "source", s.name, "ticker", ticker, "error", err)
				}
				return nil, retryable, err
			}
			return series, false, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: downloading %s: %w", s.name, ticker, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", s.name, ticker, ErrNoData)
	}
	if s.cache != nil {
		s.cache.Set(cacheKey, slices.Clone(series), cache.DefaultExpiration)
	}
	return series, nil
}

func (s *source) GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	series, err := s.DownloadTickerData(ctx, ticker, Period1Day)
	if err != nil {
		return decimal.Zero, err
	}
	latest, ok := series.Latest()
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %s: %w", s.name, ticker, ErrNoData)
	}
	return latest.Close, nil
}

func (s *source) GetSecurities(context.Context) ([]string, error) {
	return nil, fmt.Errorf("%s: listing securities: %w", s.name, ErrNotImplemented)
}

// isRetryable reports whether a fetch error is transient.
//
// Errors that implement Retryable() bool decide for themselves. Other network
// errors are retryable. Cancellation and everything else is not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryableErr interface{ Retryable() bool }
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// trimSeries keeps the trailing bars for the period.
func trimSeries(series Series, period Period) Series {
	if tradingDays := period.TradingDays(); tradingDays > 0 && len(series) > tradingDays {
		return series[len(series)-tradingDays:]
	}
	return series
}
