// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package positiondelete implements the "position delete" command.
package positiondelete

import (
	"context"
	"fmt"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/spf13/pflag"
)

// tickerFlagName is the flag name for the ticker of the position to delete.
const tickerFlagName = "ticker"

// NewCommand returns a new position delete command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "Delete a position and all of its transactions from a portfolio file",
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
	// Ticker is the ticker of the position to delete.
	Ticker string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	flagSet.StringVar(&f.Ticker, tickerFlagName, "", "The ticker of the position to delete (required)")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	ticker := strings.TrimSpace(flags.Ticker)
	if ticker == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", tickerFlagName)
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	return runtime.WithSource(container.Arg(0), func(source pfoliosource.Source) error {
		position, ok := source.Position(ticker)
		if !ok {
			return fmt.Errorf("%s: %w", ticker, pfoliosource.ErrPositionNotFound)
		}
		if err := source.DeletePosition(position); err != nil {
			return err
		}
		container.Logger().Info("deleted position", "ticker", ticker, "transactions", len(position.Transactions()))
		return nil
	})
}
