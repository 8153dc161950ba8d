// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/rpcd"
)

func newRPCDCommand() *cobra.Command {
	rpcdCommand := &cobra.Command{
		Use:    "rpcd",
		Short:  "Manage the msfrpcd supervisor process",
		Hidden: true,
	}
	rpcdCommand.AddCommand(newRPCDRunCommand())
	return rpcdCommand
}

func newRPCDRunCommand() *cobra.Command {
	runCommand := &cobra.Command{
		Use:   "run",
		Short: "Run the msfrpcd supervisor in the foreground",
		Args:  WrapArgsError(cobra.NoArgs),
		RunE:  rpcdRunAction,
	}
	runCommand.Flags().StringP("pidfile", "p", "", "Write pid to file")
	return runCommand
}

func rpcdRunAction(cmd *cobra.Command, _ []string) error {
	pidfile, err := cmd.Flags().GetString("pidfile")
	if err != nil {
		return err
	}
	if pidfile != "" {
		if _, err := os.Stat(pidfile); !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("pidfile %q already exists", pidfile)
		}
		if err := os.WriteFile(pidfile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
			return err
		}
		defer os.RemoveAll(pidfile)
	}

	cfg, err := loadStack()
	if err != nil {
		return err
	}

	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGTERM)

	stdout := &syncWriter{w: cmd.OutOrStdout()}

	return rpcd.New(cfg, stdout, sigintCh).Run(cmd.Context())
}

// syncer is implemented by *os.File
type syncer interface {
	Sync() error
}

type syncWriter struct {
	w io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	written, err := w.w.Write(p)
	if err == nil {
		if s, ok := w.w.(syncer); ok {
			_ = s.Sync()
		}
	}
	return written, err
}
