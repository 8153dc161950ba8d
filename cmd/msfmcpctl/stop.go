// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/service"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

func newStopCommand() *cobra.Command {
	stopCmd := &cobra.Command{
		Use:               "stop [SERVICE...]",
		Short:             "Stop the stack services in reverse dependency order",
		Args:              WrapArgsError(cobra.ArbitraryArgs),
		RunE:              stopAction,
		ValidArgsFunction: serviceBashComplete,
		GroupID:           basicCommand,
	}
	stopCmd.Flags().BoolP("force", "f", false, "Force stop the services")
	return stopCmd
}

func stopAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadStack()
	if err != nil {
		return err
	}
	services := store.Services(cfg)
	if len(args) > 0 {
		services, err = store.Select(services, args)
		if err != nil {
			return err
		}
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return service.Stop(ctx, conn, services, force)
}
