// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/archive"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/budget"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/config"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/position"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/price"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/report"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/transaction"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("pfolio"))
}

// newRootCommand creates the root pfolio command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Track and value a stock portfolio",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			report.NewCommand("report", builder),
			price.NewCommand("price", builder),
			position.NewCommand("position", builder),
			transaction.NewCommand("transaction", builder),
			budget.NewCommand("budget", builder),
			archive.NewCommand("archive", builder),
			config.NewCommand("config", builder),
		},
	}
}
