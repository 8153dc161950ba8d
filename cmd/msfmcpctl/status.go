// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/sideffect263/metasploit-mcp/pkg/healthcheck"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

func newStatusCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:               "status [SERVICE...]",
		Short:             "Show the status of the stack services",
		Args:              WrapArgsError(cobra.ArbitraryArgs),
		RunE:              statusAction,
		ValidArgsFunction: serviceBashComplete,
		GroupID:           basicCommand,
	}
	statusCmd.Flags().StringP("format", "f", "table", "Output format, one of: json, yaml, table, or a go template"+store.FormatHelp)
	statusCmd.Flags().BoolP("quiet", "q", false, "Only show names")
	statusCmd.Flags().Bool("all-fields", false, "Show all fields in the table output")
	return statusCmd
}

func statusAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	allFields, err := cmd.Flags().GetBool("all-fields")
	if err != nil {
		return err
	}
	if quiet && cmd.Flags().Changed("format") {
		return errors.New("option --quiet conflicts with --format")
	}

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

	if quiet {
		for _, svc := range services {
			fmt.Fprintln(cmd.OutOrStdout(), svc.Name)
		}
		return nil
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := store.InspectAll(ctx, conn, services); err != nil {
		return err
	}
	healthcheck.ProbeServices(ctx, services)

	options := &store.PrintOptions{AllFields: allFields}
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok {
		if ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil {
			options.TerminalWidth = int(ws.Col)
		}
	}
	return store.PrintServices(out, services, format, options)
}
