// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package report implements the "report" command.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioportfolio"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioreport"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/spf13/pflag"
)

// NewCommand returns a new report command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "Value a portfolio file at current market prices",
		Long: `Value a portfolio file at current market prices.

The file must be a CSV file with Ticker, Date, Price, and Quantity columns.
Positive quantities are buys and negative quantities are sells.

If any ticker cannot be priced by any configured data source, no report is printed.`,
		Args: appcmd.ExactArgs(1),
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
	flagSet.StringVar(&f.Format, pfoliocmd.FormatFlagName, string(cliio.FormatText), "Output format (text, table, csv, json, markdown)")
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
	var report *pfolioreport.Report
	if err := runtime.WithSource(container.Arg(0), func(source pfoliosource.Source) error {
		portfolio, refreshResult := pfolioportfolio.New(
			ctx,
			dataSources,
			source.Positions(),
			pfolioportfolio.WithCacheTTL(runtime.Config.CacheTTL),
			pfolioportfolio.WithLogger(logger),
		)
		if failed := refreshResult.Failed(); len(failed) > 0 {
			for _, priceResult := range failed {
				logger.Error("could not price position", "ticker", priceResult.Ticker, "error", priceResult.Err)
			}
			return fmt.Errorf("could not price %d of %d positions", len(failed), portfolio.Len())
		}
		var err error
		report, err = pfolioreport.Build(ctx, portfolio, time.Now(), runtime.Config.Currency)
		return err
	}); err != nil {
		return err
	}
	return writeReport(container.Stdout(), format, report)
}

func writeReport(writer io.Writer, format cliio.Format, report *pfolioreport.Report) error {
	switch format {
	case cliio.FormatText:
		pairs := pfolioreport.SummaryPairs(report.Summary)
		for _, position := range report.Positions {
			pairs = append(pairs, [2]string{})
			pairs = append(pairs, pfolioreport.PositionPairs(position)...)
		}
		return cliio.WriteLabeled(writer, pairs)
	case cliio.FormatTable:
		rows := make([][]string, 0, len(report.Positions))
		for _, position := range report.Positions {
			rows = append(rows, pfolioreport.PositionToRow(position))
		}
		return cliio.WriteTableWithTotals(writer, pfolioreport.PositionHeaders(), rows, pfolioreport.SummaryTotalsRow(report.Summary))
	case cliio.FormatCSV:
		records := make([][]string, 0, len(report.Positions)+1)
		records = append(records, pfolioreport.PositionHeaders())
		for _, position := range report.Positions {
			records = append(records, pfolioreport.PositionToRow(position))
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, report)
	case cliio.FormatMarkdown:
		return cliio.WriteMarkdown(writer, pfolioreport.Markdown(report))
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
