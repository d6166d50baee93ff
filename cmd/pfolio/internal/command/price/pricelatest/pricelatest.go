// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pricelatest implements the "price latest" command.
package pricelatest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/spf13/pflag"
)

// NewCommand returns a new price latest command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <ticker>...",
		Short: "Print the latest close for each ticker",
		Args:  appcmd.MinimumNArgs(1),
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	flagSet.StringVar(&f.Format, pfoliocmd.FormatFlagName, string(cliio.FormatTable), "Output format (table, csv, json)")
}

// latestPrice is a single output row.
type latestPrice struct {
	Ticker string `json:"ticker"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
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
	logger := container.Logger()
	var latestPrices []*latestPrice
	var errs []error
	for i := range container.NumArgs() {
		ticker := strings.ToUpper(container.Arg(i))
		price, err := getLatestPrice(ctx, dataSources, ticker)
		if err != nil {
			logger.Error("could not price ticker", "ticker", ticker, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		latestPrices = append(latestPrices, price)
	}
	if err := write(container, format, latestPrices); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// getLatestPrice tries each source in order and returns the first price.
func getLatestPrice(ctx context.Context, dataSources []pfoliodata.Source, ticker string) (*latestPrice, error) {
	var errs []error
	for _, dataSource := range dataSources {
		price, err := dataSource.GetLatestPrice(ctx, ticker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return &latestPrice{
			Ticker: ticker,
			Price:  price.String(),
			Source: dataSource.Name(),
		}, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no data sources configured")
	}
	return nil, errors.Join(errs...)
}

func write(container appext.Container, format cliio.Format, latestPrices []*latestPrice) error {
	headers := []string{"TICKER", "PRICE", "SOURCE"}
	rows := make([][]string, 0, len(latestPrices))
	for _, price := range latestPrices {
		rows = append(rows, []string{price.Ticker, price.Price, price.Source})
	}
	switch format {
	case cliio.FormatTable, cliio.FormatText:
		return cliio.WriteTable(container.Stdout(), headers, rows)
	case cliio.FormatCSV:
		return cliio.WriteCSVRecords(container.Stdout(), append([][]string{headers}, rows...))
	case cliio.FormatJSON:
		return cliio.WriteJSON(container.Stdout(), latestPrices...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
