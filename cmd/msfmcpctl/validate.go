// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/jsonschemautil"
	"github.com/sideffect263/metasploit-mcp/pkg/prereq"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

func newValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:     "validate [FILE.yaml]",
		Short:   "Validate the stack configuration and the host prerequisites",
		Args:    WrapArgsError(cobra.MaximumNArgs(1)),
		RunE:    validateAction,
		GroupID: advancedCommand,
	}
	validateCmd.Flags().String("schema", "", "Also validate against a JSON schema file (see `msfmcpctl genschema`)")
	validateCmd.Flags().Bool("config-only", false, "Skip the host prerequisite checks")
	return validateCmd
}

func validateAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	schemaFile, err := cmd.Flags().GetString("schema")
	if err != nil {
		return err
	}
	configOnly, err := cmd.Flags().GetBool("config-only")
	if err != nil {
		return err
	}

	cfgPath := dirnames.StackYAMLPath()
	if len(args) > 0 {
		cfgPath = args[0]
	}
	b, err := os.ReadFile(cfgPath)
	if errors.Is(err, os.ErrNotExist) && len(args) == 0 {
		return fmt.Errorf("%q does not exist (hint: run `sudo msfmcpctl install` first, or pass a file to validate)", cfgPath)
	}
	if err != nil {
		return err
	}

	cfg, err := stackyaml.Load(b)
	if err != nil {
		return fmt.Errorf("failed to load YAML file %q: %w", cfgPath, err)
	}
	if err := stackyaml.Validate(cfg); err != nil {
		return fmt.Errorf("%q: %w", cfgPath, err)
	}
	if schemaFile != "" {
		if err := jsonschemautil.Validate(schemaFile, cfgPath); err != nil {
			return fmt.Errorf("%q does not conform to %q: %w", cfgPath, schemaFile, err)
		}
	}
	logrus.Infof("%q: OK", cfgPath)

	if configOnly {
		return nil
	}
	checks := prereq.CheckAll(ctx, *cfg.MCP.PythonBin)
	if err := prereq.Write(cmd.OutOrStdout(), checks); err != nil {
		return err
	}
	return prereq.Verify(checks)
}
