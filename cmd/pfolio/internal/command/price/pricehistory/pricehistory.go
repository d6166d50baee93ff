// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pricehistory implements the "price history" command.
package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/spf13/pflag"
)

// periodFlagName is the flag name for the lookback period.
const periodFlagName = "period"

// NewCommand returns a new price history command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <ticker>...",
		Short: "Print daily bars for each ticker",
		Long: `Print daily bars for each ticker.

Tickers are requested from the first configured data source. Tickers it
cannot serve are requested from the next source, and so on.`,
		Args: appcmd.MinimumNArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Config is the path to the configuration file.
	Config string
	// Format is the output format.
	Format string
	// Period is the lookback period.
	Period string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	flagSet.StringVar(&f.Format, pfoliocmd.FormatFlagName, string(cliio.FormatTable), "Output format (table, csv, json)")
	flagSet.StringVar(&f.Period, periodFlagName, string(pfoliodata.Period1Month), "Lookback period (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max)")
}

// bar is a single output row.
type bar struct {
	Ticker string `json:"ticker"`
	Source string `json:"source"`
	pfoliodata.Bar
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	period, err := pfoliodata.ParsePeriod(flags.Period)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	dataSources, err := runtime.NewDataSources()
	if err != nil {
		return err
	}
	var tickers []string
	for i := range container.NumArgs() {
		tickers = append(tickers, strings.ToUpper(container.Arg(i)))
	}
	logger := container.Logger()
	var bars []*bar
	remaining := tickers
	var errs []error
	for _, dataSource := range dataSources {
		if len(remaining) == 0 {
			break
		}
		seriesByTicker, err := dataSource.DownloadHistoricalData(ctx, remaining, period)
		if err != nil {
			logger.Warn("data source failed for some tickers", "source", dataSource.Name(), "error", err)
			errs = append(errs, err)
		}
		var next []string
		for _, ticker := range remaining {
			series, ok := seriesByTicker[ticker]
			if !ok {
				next = append(next, ticker)
				continue
			}
			for _, seriesBar := range series {
				bars = append(bars, &bar{Ticker: ticker, Source: dataSource.Name(), Bar: seriesBar})
			}
		}
		remaining = next
	}
	slices.SortStableFunc(bars, func(a *bar, b *bar) int {
		return strings.Compare(a.Ticker, b.Ticker)
	})
	if err := write(container, format, bars); err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("no data for %s: %w", strings.Join(remaining, ", "), errors.Join(errs...))
	}
	return nil
}

func write(container appext.Container, format cliio.Format, bars []*bar) error {
	headers := []string{"TICKER", "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME", "SOURCE"}
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Ticker,
			xtime.TimeToDate(b.Date).String(),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
			b.Source,
		})
	}
	switch format {
	case cliio.FormatTable, cliio.FormatText:
		return cliio.WriteTable(container.Stdout(), headers, rows)
	case cliio.FormatCSV:
		return cliio.WriteCSVRecords(container.Stdout(), append([][]string{headers}, rows...))
	case cliio.FormatJSON:
		return cliio.WriteJSON(container.Stdout(), bars...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
