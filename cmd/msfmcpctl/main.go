// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/debugutil"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/version"
)

const (
	basicCommand    = "basic"
	advancedCommand = "advanced"
)

func main() {
	err := newApp().Execute()
	osutil.HandleExitError(err)
	if err != nil {
		logrus.Fatal(err)
	}
}

func processGlobalFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.Flags()

	// --log-level overrides --debug, but debugutil.Debug stays set so
	// the rpcd spawn inherits it
	if debug, _ := flags.GetBool("debug"); debug {
		logrus.SetLevel(logrus.DebugLevel)
		debugutil.Debug = true
	}
	if l, _ := flags.GetString("log-level"); l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}

	switch logFormat, _ := flags.GetString("log-format"); logFormat {
	case "json":
		logrus.StandardLogger().SetFormatter(new(logrus.JSONFormatter))
	case "text":
		// the logrus default
	default:
		return fmt.Errorf("unsupported log-format: %q", logFormat)
	}
	return nil
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "msfmcpctl",
		Short:   "Manage the Metasploit MCP stack: msfrpcd, the MCP server, and nginx",
		Version: strings.TrimPrefix(version.Version, "v"),
		Example: `  Install the stack:
  $ sudo msfmcpctl install

  Start all services:
  $ sudo msfmcpctl start

  Show service status:
  $ msfmcpctl status

  Follow the MCP server log:
  $ msfmcpctl logs mcp --follow`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the logging format [text, json]")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug mode")
	rootCmd.PersistentFlags().Bool("tty", isatty.IsTerminal(os.Stdout.Fd()), "Enable TUI interactions such as prompts. Defaults to true when stdout is a terminal. Set to false for automation.")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Alias of --tty=false")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := processGlobalFlags(rootCmd); err != nil {
			return err
		}

		if cmd.Flags().Changed("yes") && cmd.Flags().Changed("tty") {
			return errors.New("cannot use both --tty and --yes flags at the same time")
		}
		if cmd.Flags().Changed("yes") {
			yesValue, _ := cmd.Flags().GetBool("yes")
			if yesValue {
				if err := cmd.Flags().Set("tty", "false"); err != nil {
					return err
				}
			}
		}
		return nil
	}
	rootCmd.AddGroup(&cobra.Group{ID: basicCommand, Title: "Basic Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: advancedCommand, Title: "Advanced Commands:"})

	rootCmd.AddCommand(
		newInstallCommand(),
		newUninstallCommand(),
		newStartCommand(),
		newStopCommand(),
		newRestartCommand(),
		newStatusCommand(),
		newLogsCommand(),
		newUpdateCommand(),
		newValidateCommand(),
		newSetupCommand(),
		newInfoCommand(),
		newRPCDCommand(),
		newGenDocCommand(),
		newGenSchemaCommand(),
	)

	return rootCmd
}

// loadStack loads the installed stack.yaml. Commands that must work on an
// uninstalled host use stackyaml.LoadOrDefault instead.
func loadStack() (*stackyaml.Stack, error) {
	path := dirnames.StackYAMLPath()
	cfg, err := stackyaml.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%q does not exist (hint: run `sudo msfmcpctl install` first)", path)
	}
	return cfg, err
}

// WrapArgsError annotates cobra args error with some context, so the error message is more user-friendly.
func WrapArgsError(argFn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := argFn(cmd, args)
		if err == nil {
			return nil
		}

		return fmt.Errorf("%q %s.\nSee '%s --help'.\n\nUsage:  %s\n\n%s",
			cmd.CommandPath(), err.Error(),
			cmd.CommandPath(),
			cmd.UseLine(), cmd.Short,
		)
	}
}
