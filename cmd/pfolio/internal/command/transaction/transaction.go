// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package transaction implements the "transaction" command group.
package transaction

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/transaction/transactionadd"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/transaction/transactiondelete"
)

// NewCommand returns a new transaction command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Record and remove transactions in a portfolio file",
		SubCommands: []*appcmd.Command{
			transactionadd.NewCommand("add", builder),
			transactiondelete.NewCommand("delete", builder),
		},
	}
}
