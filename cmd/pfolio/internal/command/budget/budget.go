// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package budget implements the "budget" command.
package budget

import (
	"context"
	"fmt"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliobudget"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/spf13/pflag"
)

const (
	fromFlagName = "from"
	toFlagName   = "to"
)

// NewCommand returns a new budget command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Generate ledger transactions for the configured budget entries",
		Long: `Generate ledger transactions for the configured budget entries.

Each entry in the budget section of the configuration file is expanded over
the dates in [--from, --to). By default, one month starting today is generated.`,
		Args: appcmd.NoArgs,
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
	// From is the first date, inclusive.
	From string
	// To is the last date, exclusive.
	To string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	flagSet.StringVar(&f.Format, pfoliocmd.FormatFlagName, string(cliio.FormatText), "Output format (text, table, csv, json); text is ledger format")
	flagSet.StringVar(&f.From, fromFlagName, "", "The first date in YYYY-MM-DD format, inclusive (defaults to today)")
	flagSet.StringVar(&f.To, toFlagName, "", "The last date in YYYY-MM-DD format, exclusive (defaults to one month after --from)")
}

// occurrence is a single output row.
type occurrence struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Payer  string `json:"payer"`
	Payee  string `json:"payee"`
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	from, to, err := parseDateRange(flags.From, flags.To, xtime.Today())
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	if len(runtime.Config.BudgetEntries) == 0 {
		return fmt.Errorf("no budget entries configured, add them to the budget section of %s", runtime.ConfigFilePath)
	}
	occurrences, err := pfoliobudget.Generate(runtime.Config.BudgetEntries, from, to)
	if err != nil {
		return err
	}
	container.Logger().Debug("generated budget", "from", from.String(), "to", to.String(), "occurrences", len(occurrences))
	if format == cliio.FormatText {
		return pfoliobudget.WriteLedger(container.Stdout(), occurrences)
	}
	outputs := make([]*occurrence, 0, len(occurrences))
	for _, o := range occurrences {
		outputs = append(outputs, &occurrence{
			Date:   o.Date.String(),
			Name:   o.Entry.Name,
			Amount: o.Entry.Amount.StringFixed(2),
			Payer:  o.Entry.PayerAccount,
			Payee:  o.Entry.PayeeAccount,
		})
	}
	headers := []string{"DATE", "NAME", "AMOUNT", "PAYER", "PAYEE"}
	rows := make([][]string, 0, len(outputs))
	for _, output := range outputs {
		rows = append(rows, []string{output.Date, output.Name, output.Amount, output.Payer, output.Payee})
	}
	switch format {
	case cliio.FormatTable:
		return cliio.WriteTable(container.Stdout(), headers, rows)
	case cliio.FormatCSV:
		return cliio.WriteCSVRecords(container.Stdout(), append([][]string{headers}, rows...))
	case cliio.FormatJSON:
		return cliio.WriteJSON(container.Stdout(), outputs...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

// parseDateRange parses the --from and --to values.
//
// An empty from is today. An empty to is one month after from.
func parseDateRange(fromValue string, toValue string, today xtime.Date) (xtime.Date, xtime.Date, error) {
	from := today
	if fromValue != "" {
		var err error
		from, err = xtime.ParseDate(fromValue)
		if err != nil {
			return xtime.Date{}, xtime.Date{}, fmt.Errorf("invalid --%s %q, must be YYYY-MM-DD", fromFlagName, fromValue)
		}
	}
	to := from.AddMonths(1)
	if toValue != "" {
		var err error
		to, err = xtime.ParseDate(toValue)
		if err != nil {
			return xtime.Date{}, xtime.Date{}, fmt.Errorf("invalid --%s %q, must be YYYY-MM-DD", toFlagName, toValue)
		}
	}
	if to.Before(from) {
		return xtime.Date{}, xtime.Date{}, fmt.Errorf("--%s %s is before --%s %s", toFlagName, to, fromFlagName, from)
	}
	return from, to, nil
}
