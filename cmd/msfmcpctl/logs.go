// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/logtail"
	"github.com/sideffect263/metasploit-mcp/pkg/uiutil"
)

func newLogsCommand() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:               "logs [TARGET]",
		Short:             "Show logs of a stack service",
		Args:              WrapArgsError(cobra.MaximumNArgs(1)),
		RunE:              logsAction,
		ValidArgsFunction: logTargetBashComplete,
		GroupID:           basicCommand,
	}
	logsCmd.Flags().IntP("lines", "n", logtail.DefaultLines, "Number of lines to show from the end of the log")
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	return logsCmd
}

func logsAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lines, err := cmd.Flags().GetInt("lines")
	if err != nil {
		return err
	}
	follow, err := cmd.Flags().GetBool("follow")
	if err != nil {
		return err
	}
	tty, err := cmd.Flags().GetBool("tty")
	if err != nil {
		return err
	}

	targets := logtail.Targets()
	var target logtail.Target
	if len(args) > 0 {
		target, err = logtail.Lookup(targets, args[0])
		if err != nil {
			return err
		}
	} else {
		if !tty {
			var names []string
			for _, t := range targets {
				names = append(names, t.Name)
			}
			return fmt.Errorf("a log target is required in non-interactive mode (one of %v)", names)
		}
		target, err = askLogTarget(targets)
		if err != nil {
			return err
		}
	}
	return logtail.Show(ctx, cmd.OutOrStdout(), target, lines, follow)
}

func askLogTarget(targets []logtail.Target) (logtail.Target, error) {
	options := make([]string, len(targets))
	for i, t := range targets {
		options[i] = fmt.Sprintf("%s (%s)", t.Name, t.Description)
	}
	idx, err := uiutil.Select("Which log do you want to see?", options)
	if err != nil {
		return logtail.Target{}, err
	}
	if idx < 0 || idx >= len(targets) {
		return logtail.Target{}, errors.New("no log target was selected")
	}
	return targets[idx], nil
}
