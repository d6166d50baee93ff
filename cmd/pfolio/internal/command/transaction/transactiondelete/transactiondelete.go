// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package transactiondelete implements the "transaction delete" command.
package transactiondelete

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/spf13/pflag"
)

// errTransactionNotFound is returned when no transaction matches the flags.
var errTransactionNotFound = errors.New("transaction not found")

// NewCommand returns a new transaction delete command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "Remove a transaction from a portfolio file",
		Long: `Remove a transaction from a portfolio file.

The first transaction with the same ticker, date, price, and quantity is removed.
If it was the last transaction for the ticker, the position is removed.`,
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
		if err := deleteTransaction(source, transaction); err != nil {
			return err
		}
		container.Logger().Info("deleted transaction", "transaction", transaction.String())
		return nil
	})
}

func deleteTransaction(source pfoliosource.Source, transaction pfoliotransaction.Transaction) error {
	position, ok := source.Position(transaction.Ticker())
	if !ok {
		return fmt.Errorf("%s: %w", transaction.Ticker(), pfoliosource.ErrPositionNotFound)
	}
	transactions := position.Transactions()
	i := slices.IndexFunc(transactions, transaction.Equal)
	if i < 0 {
		return fmt.Errorf("%s: %w", transaction, errTransactionNotFound)
	}
	transactions = slices.Delete(slices.Clone(transactions), i, i+1)
	if len(transactions) == 0 {
		return source.DeletePosition(position)
	}
	newPosition, err := pfolioposition.New(position.Ticker(), transactions...)
	if err != nil {
		return err
	}
	return source.ModifyPosition(newPosition)
}
