// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package position implements the "position" command group.
package position

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/position/positiondelete"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/command/position/positionlist"
)

// NewCommand returns a new position command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Inspect and manage positions in a portfolio file",
		SubCommands: []*appcmd.Command{
			positionlist.NewCommand("list", builder),
			positiondelete.NewCommand("delete", builder),
		},
	}
}
