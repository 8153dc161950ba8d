// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/sideffect263/metasploit-mcp/pkg/editutil"
	"github.com/sideffect263/metasploit-mcp/pkg/installer"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/service"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/uiutil"
	"github.com/sideffect263/metasploit-mcp/pkg/yqutil"
)

func newUpdateCommand() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:     "update",
		Short:   "Edit stack.yaml and regenerate the derived files",
		Args:    WrapArgsError(cobra.NoArgs),
		RunE:    updateAction,
		GroupID: basicCommand,
	}
	flags := updateCmd.Flags()
	flags.StringArray("set", nil, "Modify stack.yaml with a yq expression, e.g. '.rpc.port = 55554' (can be repeated)")
	flags.Int("rpc-port", 0, "Set rpc.port, the msfrpcd listener port")
	flags.Int("mcp-port", 0, "Set mcp.port, the MCP server port proxied by nginx")
	flags.Int("nginx-port", 0, "Set nginx.listenPort")
	flags.String("transport", "", "Set mcp.transport (http, stdio)")
	_ = updateCmd.RegisterFlagCompletionFunc("transport", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return stackyaml.TransportTypes, cobra.ShellCompDirectiveNoFileComp
	})
	flags.Bool("restart", false, "Restart the services after a successful update")
	return updateCmd
}

// yqExpressions compiles the typed convenience flags and the raw --set
// arguments into yq expressions, typed flags first.
func yqExpressions(flags *flag.FlagSet) ([]string, error) {
	d := func(expr string) func(*flag.Flag) (string, error) {
		return func(v *flag.Flag) (string, error) {
			return fmt.Sprintf(expr, v.Value), nil
		}
	}
	defs := []struct {
		flagName string
		exprFunc func(*flag.Flag) (string, error)
	}{
		{"rpc-port", d(".rpc.port = %s")},
		{"mcp-port", d(".mcp.port = %s")},
		{"nginx-port", d(".nginx.listenPort = %s")},
		{"transport", func(v *flag.Flag) (string, error) {
			s := v.Value.String()
			if !slices.Contains(stackyaml.TransportTypes, s) {
				return "", fmt.Errorf("expected one of %v, got %q", stackyaml.TransportTypes, s)
			}
			return fmt.Sprintf(".mcp.transport = %q", s), nil
		}},
	}
	var exprs []string
	for _, def := range defs {
		v := flags.Lookup(def.flagName)
		if v == nil || !v.Changed {
			continue
		}
		expr, err := def.exprFunc(v)
		if err != nil {
			return nil, fmt.Errorf("error while processing flag %q: %w", def.flagName, err)
		}
		exprs = append(exprs, expr)
	}
	set, err := flags.GetStringArray("set")
	if err != nil {
		return nil, err
	}
	return append(exprs, set...), nil
}

func updateAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := osutil.RequireRoot("update"); err != nil {
		return err
	}

	exprs, err := yqExpressions(cmd.Flags())
	if err != nil {
		return err
	}
	restart, err := cmd.Flags().GetBool("restart")
	if err != nil {
		return err
	}
	tty, err := cmd.Flags().GetBool("tty")
	if err != nil {
		return err
	}

	cfgPath := dirnames.StackYAMLPath()
	yContent, err := os.ReadFile(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%q does not exist (hint: run `sudo msfmcpctl install` first)", cfgPath)
	}
	if err != nil {
		return err
	}

	var yBytes []byte
	switch {
	case len(exprs) > 0:
		yBytes, err = yqutil.EvaluateExpression(yqutil.Join(exprs), yContent)
		if err != nil {
			return err
		}
	case tty:
		hdr := fmt.Sprintf("# Please edit the following configuration for the Metasploit MCP stack: %q\n", cfgPath)
		hdr += "# Saving an empty file aborts the edit.\n"
		hdr += "\n"
		yBytes, err = editutil.OpenEditor(yContent, hdr)
		if err != nil {
			return err
		}
	default:
		return errors.New("`update` requires at least one modification flag (e.g. --set, --rpc-port) in non-interactive mode")
	}

	if len(yBytes) == 0 {
		logrus.Info("Aborting, as requested by saving the file with empty content")
		return nil
	}
	if bytes.Equal(yBytes, yContent) {
		logrus.Info("Aborting, no changes made to stack.yaml")
		return nil
	}

	cfg, err := stackyaml.Load(yBytes)
	if err == nil {
		err = stackyaml.Validate(cfg)
	}
	if err != nil {
		rejectedYAML := "stack.REJECTED.yaml"
		if writeErr := os.WriteFile(rejectedYAML, yBytes, 0o600); writeErr != nil {
			return fmt.Errorf("the YAML is invalid, attempted to save the buffer as %q but failed: %w: %w", rejectedYAML, writeErr, err)
		}
		return fmt.Errorf("the YAML is invalid, saved the buffer as %q: %w", rejectedYAML, err)
	}

	backupPath, err := osutil.BackupFile(cfgPath, dirnames.BackupsDir())
	if err != nil {
		return err
	}
	logrus.Infof("Backed up %q to %q", cfgPath, backupPath)
	if err := osutil.WriteFileAtomically(cfgPath, yBytes, 0o600); err != nil {
		return err
	}
	logrus.Infof("Updated %q", cfgPath)

	opts := installer.Options{}
	if tty {
		opts.Confirm = uiutil.Confirm
	}

	conn, err := sdunit.New(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := installer.Regenerate(ctx, conn, cfg, opts); err != nil {
		return err
	}

	if !restart {
		if !tty {
			logrus.Info(`Run "sudo msfmcpctl restart" to apply the changes to running services`)
			return nil
		}
		restart, err = uiutil.Confirm("Do you want to restart the stack now to apply the changes?", true)
		if err != nil {
			return err
		}
		if !restart {
			return nil
		}
	}
	return service.Restart(ctx, conn, cfg, store.Services(cfg))
}
