// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/mikefarah/yq/v4/pkg/yqlib"
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/stackinfo"
	"github.com/sideffect263/metasploit-mcp/pkg/uiutil"
	"github.com/sideffect263/metasploit-mcp/pkg/yqutil"
)

func newInfoCommand() *cobra.Command {
	infoCmd := &cobra.Command{
		Use:     "info",
		Short:   "Show diagnostic information",
		Args:    WrapArgsError(cobra.NoArgs),
		RunE:    infoAction,
		GroupID: advancedCommand,
	}
	infoCmd.Flags().String("yq", ".", "Apply yq expression to output")
	infoCmd.Flags().String("format", "json", "Output format, one of: json, table")
	return infoCmd
}

func infoAction(cmd *cobra.Command, _ []string) error {
	yq, err := cmd.Flags().GetString("yq")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	info, err := stackinfo.New()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch format {
	case "table":
		fmt.Fprintf(out, "msfmcpctl version %s\n", info.Version)
		fmt.Fprintf(out, "config %s (installed: %v)\n\n", info.ConfigPath, info.Installed)
		return info.System.Write(out)
	case "json":
		j, err := json.MarshalIndent(info, "", "    ")
		if err != nil {
			return err
		}
		encoderPrefs := yqlib.ConfiguredJSONPreferences.Copy()
		encoderPrefs.Indent = 4
		encoderPrefs.ColorsEnabled = uiutil.OutputIsTTY(out)
		encoder := yqlib.NewJSONEncoder(encoderPrefs)
		str, err := yqutil.EvaluateExpressionWithEncoder(yq, string(j), encoder)
		if err == nil {
			_, err = fmt.Fprint(out, str)
		}
		return err
	default:
		return fmt.Errorf("unsupported format: %q", format)
	}
}
