// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliodata

import (
	"context"
	"log/slog"

	"github.com/bufdev/pfolio/internal/pkg/yahoo"
)

// YahooSourceName is the name of the Yahoo Finance source.
const YahooSourceName = "yahoo"

// NewYahooSource returns a new Source backed by the Yahoo Finance chart API.
func NewYahooSource(logger *slog.Logger, client yahoo.Client, options ...SourceOption) Source {
	sourceOptions := newSourceOptions()
	for _, option := range options {
		option(sourceOptions)
	}
	fetch := func(ctx context.Context, ticker string, period Period) (Series, error) {
		chart, err := client.GetChart(ctx, ticker, string(period))
		if err != nil {
			return nil, err
		}
		series := make(Series, 0, len(chart.Bars))
		for _, bar := range chart.Bars {
			series = append(series, Bar{
				Date:   bar.Time,
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: bar.Volume,
			})
		}
		return trimSeries(series, period), nil
	}
	return newSource(YahooSourceName, logger, fetch, sourceOptions)
}
