// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/service"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

func newStartCommand() *cobra.Command {
	startCmd := &cobra.Command{
		Use:               "start [SERVICE...]",
		Short:             "Start the stack services in dependency order",
		Args:              WrapArgsError(cobra.ArbitraryArgs),
		RunE:              startAction,
		ValidArgsFunction: serviceBashComplete,
		GroupID:           basicCommand,
	}
	startCmd.Flags().Duration("timeout", service.DefaultWatchEventsTimeout, "Duration to wait for msfrpcd to accept RPC connections")
	return startCmd
}

func startAction(cmd *cobra.Command, args []string) error {
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
	return service.Start(ctx, conn, cfg, services)
}
