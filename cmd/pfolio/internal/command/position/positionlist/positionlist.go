// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package positionlist implements the "position list" command.
package positionlist

import (
	"context"
	"strconv"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/spf13/pflag"
)

// NewCommand returns a new position list command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "List the positions in a portfolio file without pricing them",
		Args:  appcmd.ExactArgs(1),
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

// positionRow is a single output row.
type positionRow struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	Quantity     string `json:"quantity"`
	CostBasis    string `json:"cost_basis"`
	Transactions int    `json:"transactions"`
	FirstDate    string `json:"first_date"`
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	var positionRows []*positionRow
	if err := runtime.WithSource(container.Arg(0), func(source pfoliosource.Source) error {
		for _, position := range source.Positions() {
			positionRows = append(positionRows, newPositionRow(position))
		}
		return nil
	}); err != nil {
		return err
	}
	headers := []string{"TICKER", "STATUS", "QUANTITY", "COST BASIS", "TRANSACTIONS", "FIRST DATE"}
	rows := make([][]string, 0, len(positionRows))
	for _, row := range positionRows {
		rows = append(rows, []string{
			row.Ticker,
			row.Status,
			row.Quantity,
			row.CostBasis,
			strconv.Itoa(row.Transactions),
			row.FirstDate,
		})
	}
	switch format {
	case cliio.FormatTable, cliio.FormatText:
		return cliio.WriteTable(container.Stdout(), headers, rows)
	case cliio.FormatCSV:
		return cliio.WriteCSVRecords(container.Stdout(), append([][]string{headers}, rows...))
	case cliio.FormatJSON:
		return cliio.WriteJSON(container.Stdout(), positionRows...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func newPositionRow(position *pfolioposition.Position) *positionRow {
	transactions := position.Transactions()
	var firstDate string
	for i, transaction := range transactions {
		if date := xtime.TimeToDate(transaction.Date()).String(); i == 0 || date < firstDate {
			firstDate = date
		}
	}
	return &positionRow{
		Ticker:       position.Ticker(),
		Status:       position.Status().String(),
		Quantity:     position.Quantity().String(),
		CostBasis:    position.CostBasis().StringFixed(2),
		Transactions: len(transactions),
		FirstDate:    firstDate,
	}
}
