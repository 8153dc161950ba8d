// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/envfile"
	"github.com/sideffect263/metasploit-mcp/pkg/installer"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

const (
	profileBlockBegin = "# >>> metasploit-mcp env >>>"
	profileBlockEnd   = "# <<< metasploit-mcp env <<<"
)

func newSetupCommand() *cobra.Command {
	setupCmd := &cobra.Command{
		Use:     "setup",
		Short:   "Export the MSF_* environment for MCP clients to the shell profile",
		Args:    WrapArgsError(cobra.NoArgs),
		RunE:    setupAction,
		GroupID: advancedCommand,
	}
	setupCmd.Flags().String("profile", "", "Shell profile to update (default ~/.bashrc)")
	setupCmd.Flags().Bool("print", false, "Print the export lines instead of updating the profile")
	return setupCmd
}

func setupAction(cmd *cobra.Command, _ []string) error {
	printOnly, err := cmd.Flags().GetBool("print")
	if err != nil {
		return err
	}
	profile, err := cmd.Flags().GetString("profile")
	if err != nil {
		return err
	}

	cfgPath := dirnames.StackYAMLPath()
	cfg, err := stackyaml.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	if !osutil.FileExists(cfgPath) {
		logrus.Warnf("%q does not exist; exporting the built-in defaults", cfgPath)
	}

	block := exportBlock(cfg)
	if printOnly {
		_, err = fmt.Fprint(cmd.OutOrStdout(), block)
		return err
	}

	if profile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		profile = filepath.Join(home, ".bashrc")
	}
	if err := envfile.UpsertBlockFile(profile, profileBlockBegin, profileBlockEnd, block, 0o644); err != nil {
		return err
	}
	logrus.Infof("Updated %q (run `source %q` or open a new shell to apply)", profile, profile)
	return nil
}

// exportBlock renders the MSF_* contract as shell export lines.
func exportBlock(cfg *stackyaml.Stack) string {
	var b strings.Builder
	for _, e := range installer.EnvEntries(cfg) {
		fmt.Fprintf(&b, "export %s=%s\n", e.Key, shellescape.Quote(e.Value))
	}
	return b.String()
}
