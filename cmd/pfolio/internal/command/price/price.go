// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package price implements the "price" command group.
package price

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/price/pricehistory"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/price/pricelatest"
)

// NewCommand returns a new price command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Fetch market prices from the configured data sources",
		SubCommands: []*appcmd.Command{
			pricelatest.NewCommand("latest", builder),
			pricehistory.NewCommand("history", builder),
		},
	}
}
