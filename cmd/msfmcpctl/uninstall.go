// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/installer"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/service"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/uiutil"
)

func newUninstallCommand() *cobra.Command {
	uninstallCmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Stop the stack and remove everything `install` created",
		Args:    WrapArgsError(cobra.NoArgs),
		RunE:    uninstallAction,
		GroupID: basicCommand,
	}
	uninstallCmd.Flags().Bool("keep-data", false, "Keep stack.yaml, the env file, logs, and backups")
	return uninstallCmd
}

func uninstallAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	keepData, err := cmd.Flags().GetBool("keep-data")
	if err != nil {
		return err
	}
	tty, err := cmd.Flags().GetBool("tty")
	if err != nil {
		return err
	}
	if tty {
		ok, err := uiutil.Confirm("Uninstall the Metasploit MCP stack?", false)
		if err != nil {
			return err
		}
		if !ok {
			logrus.Info("Aborting")
			return nil
		}
	}

	// a partially-installed stack may not have stack.yaml yet
	cfg, err := stackyaml.LoadOrDefault(dirnames.StackYAMLPath())
	if err != nil {
		return err
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := service.Stop(ctx, conn, store.Services(cfg), true); err != nil {
		logrus.WithError(err).Warn("Failed to stop the services; continuing with the uninstall")
	}
	return installer.Uninstall(ctx, conn, cfg, installer.UninstallOptions{KeepData: keepData})
}
