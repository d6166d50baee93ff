// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliodata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bufdev/pfolio/internal/pkg/eodhd"
	"github.com/bufdev/pfolio/internal/standard/xtime"
)

const (
	// EODHDSourceName is the name of the eodhd.com source.
	EODHDSourceName = "eodhd"
	// DefaultEODHDExchange is the exchange suffix added to tickers without one.
	DefaultEODHDExchange = "US"
)

// NewEODHDSource returns a new Source backed by the eodhd.com end-of-day API.
//
// Tickers without an exchange suffix are requested on the given exchange.
// An empty exchange uses DefaultEODHDExchange.
func NewEODHDSource(logger *slog.Logger, client eodhd.Client, exchange string, options ...SourceOption) Source {
	sourceOptions := newSourceOptions()
	for _, option := range options {
		option(sourceOptions)
	}
	if exchange == "" {
		exchange = DefaultEODHDExchange
	}
	now := sourceOptions.now
	fetch := func(ctx context.Context, ticker string, period Period) (Series, error) {
		today := xtime.TimeToDate(now())
		eods, err := client.GetEOD(ctx, eodhdTicker(ticker, exchange), period.Start(today), today)
		if err != nil {
			return nil, err
		}
		series := make(Series, 0, len(eods))
		for _, eod := range eods {
			series = append(series, Bar{
				Date:   eod.Date.In(time.UTC),
				Open:   eod.Open,
				High:   eod.High,
				Low:    eod.Low,
				Close:  eod.Close,
				Volume: eod.Volume,
			})
		}
		return trimSeries(series, period), nil
	}
	return newSource(EODHDSourceName, logger, fetch, sourceOptions)
}

// *** PRIVATE ***

func eodhdTicker(ticker string, exchange string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + exchange
}
