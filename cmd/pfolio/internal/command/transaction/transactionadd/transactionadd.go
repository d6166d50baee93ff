// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package transactionadd implements the "transaction add" command.
package transactionadd

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/spf13/pflag"
)

// NewCommand returns a new transaction add command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "Record a buy or sell in a portfolio file",
		Long: `Record a buy or sell in a portfolio file.

The transaction is merged into the existing position for the ticker, or a new
position is created. With versioning enabled, a new snapshot of the file is written.`,
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
	pfoliocmd.TransactionFlags
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	f.TransactionFlags.Bind(flagSet)
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	transaction, err := flags.NewTransaction(xtime.Today())
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	return runtime.WithSource(container.Arg(0), func(source pfoliosource.Source) error {
		position, err := pfolioposition.New(transaction.Ticker(), transaction)
		if err != nil {
			return err
		}
		if err := source.AddPosition(position); err != nil {
			return err
		}
		container.Logger().Info("added transaction", "transaction", transaction.String())
		return nil
	})
}
