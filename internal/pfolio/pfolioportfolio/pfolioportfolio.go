// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfolioportfolio aggregates positions and values them with market data.
//
// A Portfolio holds one Position per ticker. Prices are refreshed from the
// configured data sources in order, falling through to the next source when
// one fails. Aggregate totals are computed from a single snapshot taken at
// the same time as the price refresh, and both are cached for the cache TTL.
package pfolioportfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/shopspring/decimal"
)

// DefaultCacheTTL is the default time prices and totals are reused.
const DefaultCacheTTL = 24 * time.Hour

// ErrEmptyPortfolio is returned when an average is requested over zero positions.
var ErrEmptyPortfolio = errors.New("portfolio has no positions")

// PriceResult is the outcome of refreshing the price for one ticker.
type PriceResult struct {
	Ticker string
	// Price is set if Err is nil.
	Price decimal.Decimal
	// Source is the name of the source that returned the price.
	Source string
	// Err joins the errors from every source if no source returned a price.
	Err error
}

// RefreshResult is the outcome of RefreshPrices.
type RefreshResult struct {
	// Results has one entry per position in ticker order.
	Results []PriceResult
	// RefreshedAt is when the prices were fetched.
	RefreshedAt time.Time
	// Skipped is true if the previous refresh was still fresh and nothing was fetched.
	Skipped bool
}

// Failed returns the results that have an error.
func (r *RefreshResult) Failed() []PriceResult {
	var failed []PriceResult
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// Err joins the per-ticker errors, or returns nil if every ticker was priced.
func (r *RefreshResult) Err() error {
	var errs []error
	for _, result := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", result.Ticker, result.Err))
	}
	return errors.Join(errs...)
}

// Option is an option for a new Portfolio.
type Option func(*Portfolio)

// WithCacheTTL sets how long prices and totals are reused. The default is DefaultCacheTTL.
func WithCacheTTL(cacheTTL time.Duration) Option {
	return func(portfolio *Portfolio) {
		portfolio.cacheTTL = cacheTTL
	}
}

// WithClock sets the function used for the current time.
func WithClock(now func() time.Time) Option {
	return func(portfolio *Portfolio) {
		portfolio.now = now
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(portfolio *Portfolio) {
		portfolio.logger = logger
	}
}

// Portfolio is a set of positions keyed by ticker.
//
// A Portfolio is not safe for concurrent use.
type Portfolio struct {
	dataSources []pfoliodata.Source
	positions   map[string]*pfolioposition.Position
	cacheTTL    time.Duration
	now         func() time.Time
	logger      *slog.Logger
	prices      cacheEntry[*RefreshResult]
	totals      cacheEntry[totals]
}

// New returns a new Portfolio with the positions and refreshes prices.
//
// Positions with the same ticker are merged. Per-ticker price failures do not
// fail construction; they are reported in the returned RefreshResult.
func New(
	ctx context.Context,
	dataSources []pfoliodata.Source,
	positions []*pfolioposition.Position,
	options ...Option,
) (*Portfolio, *RefreshResult) {
	portfolio := &Portfolio{
		dataSources: slices.Clone(dataSources),
		positions:   make(map[string]*pfolioposition.Position, len(positions)),
		cacheTTL:    DefaultCacheTTL,
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(portfolio)
	}
	portfolio.Append(positions...)
	return portfolio, portfolio.RefreshPrices(ctx)
}

// Append adds the positions, merging any whose ticker is already present.
//
// Cached prices and totals are invalidated.
func (p *Portfolio) Append(positions ...*pfolioposition.Position) {
	for _, position := range positions {
		existing, ok := p.positions[position.Ticker()]
		if !ok {
			p.logger.Debug("adding position", "ticker", position.Ticker())
			p.positions[position.Ticker()] = position
			continue
		}
		p.logger.Debug("merging position", "ticker", position.Ticker())
		// Tickers are equal so this cannot fail.
		_ = existing.MergePosition(position)
	}
	p.Invalidate()
}

// Invalidate clears cached prices and totals so the next access refreshes them.
func (p *Portfolio) Invalidate() {
	p.prices = cacheEntry[*RefreshResult]{}
	p.totals = cacheEntry[totals]{}
}

// Len returns the number of positions.
func (p *Portfolio) Len() int {
	return len(p.positions)
}

// Position returns the position for the ticker.
func (p *Portfolio) Position(ticker string) (*pfolioposition.Position, bool) {
	position, ok := p.positions[ticker]
	return position, ok
}

// Positions returns the positions sorted by ticker.
func (p *Portfolio) Positions() []*pfolioposition.Position {
	positions := make([]*pfolioposition.Position, 0, len(p.positions))
	for _, ticker := range p.tickers() {
		positions = append(positions, p.positions[ticker])
	}
	return positions
}

// RefreshPrices sets the market price of every position from the data sources.
//
// If the previous refresh is younger than the cache TTL, nothing is fetched and
// the previous result is returned with Skipped set. For each ticker, sources
// are tried in order and the first price returned wins.
func (p *Portfolio) RefreshPrices(ctx context.Context) *RefreshResult {
	now := p.now()
	if previous, ok := p.prices.get(now, p.cacheTTL); ok {
		return &RefreshResult{
			Results:     previous.Results,
			RefreshedAt: previous.RefreshedAt,
			Skipped:     true,
		}
	}
	result := &RefreshResult{
		RefreshedAt: now,
	}
	for _, ticker := range p.tickers() {
		priceResult := p.fetchPrice(ctx, ticker)
		if priceResult.Err == nil {
			p.positions[ticker].SetMarketPrice(priceResult.Price)
		} else {
			p.logger.Warn("could not price position", "ticker", ticker, "error", priceResult.Err)
		}
		result.Results = append(result.Results, priceResult)
	}
	p.logger.Info("prices refreshed", "positions", len(result.Results), "failed", len(result.Failed()))
	p.prices.set(result, now)
	// Totals must come from the same prices.
	p.totals = cacheEntry[totals]{}
	return result
}

// Value returns the sum of position values. It is always recomputed from the current prices.
func (p *Portfolio) Value() (decimal.Decimal, error) {
	value := decimal.Zero
	var errs []error
	for _, position := range p.Positions() {
		positionValue, err := position.Value()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		value = value.Add(positionValue)
	}
	if err := errors.Join(errs...); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// CostBasis returns the sum of position cost bases.
//
// It does not depend on market prices and never refreshes them.
func (p *Portfolio) CostBasis() decimal.Decimal {
	costBasis := decimal.Zero
	for _, position := range p.positions {
		costBasis = costBasis.Add(position.CostBasis())
	}
	return costBasis
}

// GainLoss returns value minus cost basis from the current snapshot.
func (p *Portfolio) GainLoss(ctx context.Context) (decimal.Decimal, error) {
	snapshot, err := p.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.gainLoss, nil
}

// GainLossPercent returns gain/loss over cost basis as a fraction, both from the same snapshot.
func (p *Portfolio) GainLossPercent(ctx context.Context) (decimal.Decimal, error) {
	snapshot, err := p.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if snapshot.costBasis.IsZero() {
		return decimal.Zero, fmt.Errorf("portfolio: %w", pfolioposition.ErrZeroCostBasis)
	}
	return snapshot.gainLoss.Div(snapshot.costBasis), nil
}

// AverageTimeHeld returns the mean time held across positions as of now.
func (p *Portfolio) AverageTimeHeld() (time.Duration, error) {
	if len(p.positions) == 0 {
		return 0, ErrEmptyPortfolio
	}
	now := p.now()
	// The sum can exceed the range of time.Duration.
	total := decimal.Zero
	for _, position := range p.Positions() {
		timeHeld, err := position.TimeHeld(now)
		if err != nil {
			return 0, err
		}
		total = total.Add(decimal.NewFromInt(int64(timeHeld)))
	}
	return time.Duration(total.Div(decimal.NewFromInt(int64(len(p.positions)))).IntPart()), nil
}

// AnnualizedReturn returns GainLossPercent divided by the whole days of
// AverageTimeHeld, times 365.
func (p *Portfolio) AnnualizedReturn(ctx context.Context) (decimal.Decimal, error) {
	gainLossPercent, err := p.GainLossPercent(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	averageTimeHeld, err := p.AverageTimeHeld()
	if err != nil {
		return decimal.Zero, err
	}
	return pfolioposition.Annualize(gainLossPercent, pfolioposition.Days(averageTimeHeld), "portfolio")
}

// *** PRIVATE ***

type totals struct {
	costBasis decimal.Decimal
	gainLoss  decimal.Decimal
}

// snapshot returns the cached totals, refreshing prices and totals together if
// the price cache has expired or the totals were never computed.
func (p *Portfolio) snapshot(ctx context.Context) (totals, error) {
	now := p.now()
	if _, ok := p.prices.get(now, p.cacheTTL); !ok {
		p.RefreshPrices(ctx)
	}
	if cached, ok := p.totals.get(now, p.cacheTTL); ok {
		return cached, nil
	}
	costBasis := p.CostBasis()
	value, err := p.Value()
	if err != nil {
		return totals{}, err
	}
	computed := totals{
		costBasis: costBasis,
		gainLoss:  value.Sub(costBasis),
	}
	p.totals.set(computed, now)
	return computed, nil
}

func (p *Portfolio) fetchPrice(ctx context.Context, ticker string) PriceResult {
	result := PriceResult{
		Ticker: ticker,
	}
	if len(p.dataSources) == 0 {
		result.Err = errors.New("no data sources configured")
		return result
	}
	var errs []error
	for _, dataSource := range p.dataSources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		price, err := dataSource.GetLatestPrice(ctx, ticker)
		if err != nil {
			p.logger.Debug("data source failed", "source", dataSource.Name(), "ticker", ticker, "error", err)
			errs = append(errs, err)
			continue
		}
		result.Price = price
		result.Source = dataSource.Name()
		return result
	}
	result.Err = errors.Join(errs...)
	return result
}

func (p *Portfolio) tickers() []string {
	tickers := make([]string, 0, len(p.positions))
	for ticker := range p.positions {
		tickers = append(tickers, ticker)
	}
	slices.Sort(tickers)
	return tickers
}

// cacheEntry is a value with the time it was computed.
type cacheEntry[T any] struct {
	value      T
	computedAt time.Time
	valid      bool
}

func (c *cacheEntry[T]) get(now time.Time, ttl time.Duration) (T, bool) {
	if !c.valid || now.Sub(c.computedAt) >= ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *cacheEntry[T]) set(value T, now time.Time) {
	c.value = value
	c.computedAt = now
	c.valid = true
}
