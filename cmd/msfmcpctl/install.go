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

func newInstallCommand() *cobra.Command {
	installCmd := &cobra.Command{
		Use:     "install",
		Short:   "Install the stack: OS packages, Metasploit, the MCP server, nginx, and the systemd unit",
		Args:    WrapArgsError(cobra.NoArgs),
		RunE:    installAction,
		GroupID: basicCommand,
	}
	installCmd.Flags().String("app-source", ".", "Directory containing the MCP server app ("+stackyaml.ServerScript+")")
	installCmd.Flags().Bool("skip-packages", false, "Skip installing OS packages with apt-get")
	return installCmd
}

func installAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	appSource, err := cmd.Flags().GetString("app-source")
	if err != nil {
		return err
	}
	skipPackages, err := cmd.Flags().GetBool("skip-packages")
	if err != nil {
		return err
	}
	tty, err := cmd.Flags().GetBool("tty")
	if err != nil {
		return err
	}

	// a re-install starts from the installed config, a fresh install from
	// the defaults
	cfg, err := stackyaml.LoadOrDefault(dirnames.StackYAMLPath())
	if err != nil {
		return err
	}

	opts := installer.Options{
		AppSource:    appSource,
		SkipPackages: skipPackages,
	}
	if tty {
		opts.Confirm = uiutil.Confirm
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := installer.Install(ctx, conn, cfg, opts); err != nil {
		return err
	}
	logrus.Info("Installation complete")

	if !tty {
		logrus.Info(`Run "sudo msfmcpctl start" to start the stack`)
		return nil
	}
	startNow, err := askWhetherToStart()
	if err != nil {
		return err
	}
	if !startNow {
		return nil
	}
	return service.Start(ctx, conn, cfg, store.Services(cfg))
}

func askWhetherToStart() (bool, error) {
	message := "Do you want to start the stack now?"
	return uiutil.Confirm(message, true)
}
