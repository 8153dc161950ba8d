// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/service"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

func newRestartCommand() *cobra.Command {
	restartCmd := &cobra.Command{
		Use:               "restart [SERVICE...]",
		Short:             "Restart the stack services",
		Args:              WrapArgsError(cobra.ArbitraryArgs),
		RunE:              restartAction,
		ValidArgsFunction: serviceBashComplete,
		GroupID:           basicCommand,
	}
	restartCmd.Flags().BoolP("force", "f", false, "Force stop the services before restarting")
	restartCmd.Flags().Duration("timeout", service.DefaultWatchEventsTimeout, "Duration to wait for msfrpcd to accept RPC connections")
	return restartCmd
}

func restartAction(cmd *cobra.Command, args []string) error {
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
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	if timeout > 0 {
		ctx = service.WithWatchEventsTimeout(ctx, timeout)
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if force {
		return service.RestartForcibly(ctx, conn, cfg, services)
	}
	return service.Restart(ctx, conn, cfg, services)
}
