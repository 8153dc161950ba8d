// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newGenDocCommand() *cobra.Command {
	gendocCommand := &cobra.Command{
		Use:    "generate-doc DIR",
		Short:  "Generate cli-reference pages",
		Args:   WrapArgsError(cobra.MinimumNArgs(1)),
		RunE:   gendocAction,
		Hidden: true,
	}
	gendocCommand.Flags().String("type", "man", "Output type (man, docsy)")
	gendocCommand.Flags().String("output", "", "Output directory")
	gendocCommand.Flags().String("prefix", "", "Install prefix")
	return gendocCommand
}

const stackManSource = `MSFMCP-STACK 5
==============
# NAME
msfmcp-stack - configuration file for the Metasploit MCP stack
# SYNOPSIS
/etc/metasploit-mcp/stack.yaml
# DESCRIPTION
stack.yaml declares the msfrpcd listener, the MCP server unit, the nginx
site, and the firewall rules managed by msfmcpctl.
Unset fields fall back to built-in defaults.

Edit it with "msfmcpctl update" rather than directly, so that the derived
files (environment file, nginx site, systemd unit) stay in sync.
# SEE ALSO
**msfmcpctl**(1)
`

func gendocAction(cmd *cobra.Command, args []string) error {
	dir := args[0]
	outputType, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	switch outputType {
	case "man":
		if err := genMan(cmd, dir); err != nil {
			return err
		}
	case "docsy":
		if err := genDocsy(cmd, dir); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported doc type %q", outputType)
	}

	// Paths burned into the generated pages would leak the build
	// environment; rewrite them to the installed locations.
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output, err = filepath.Abs(output); err != nil {
		return err
	}
	prefix, err := cmd.Flags().GetString("prefix")
	if err != nil {
		return err
	}
	if output != "" && prefix != "" {
		if err := replaceAll(dir, output, prefix); err != nil {
			return err
		}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return replaceAll(dir, homeDir, "~")
}

func genMan(cmd *cobra.Command, dir string) error {
	logrus.Infof("Generating man %q", dir)
	stackPage := filepath.Join(dir, "msfmcp-stack.5")
	if err := os.WriteFile(stackPage, md2man.Render([]byte(stackManSource)), 0o644); err != nil {
		return err
	}
	header := &doc.GenManHeader{
		Title:   "MSFMCPCTL",
		Section: "1",
	}
	return doc.GenManTree(cmd.Root(), header, dir)
}

func genDocsy(cmd *cobra.Command, dir string) error {
	frontMatter := func(s string) string {
		// "msfmcpctl_completion_bash.md" titles as "completion bash"
		name := filepath.Base(s)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		name = strings.ReplaceAll(name, "msfmcpctl_", "")
		name = strings.ReplaceAll(name, "_", " ")
		return fmt.Sprintf("---\ntitle: %s\nweight: 3\n---\n", name)
	}
	link := func(s string) string {
		// docsy pages live one folder up
		return "../" + strings.TrimSuffix(s, filepath.Ext(s))
	}
	return doc.GenMarkdownTreeCustom(cmd.Root(), dir, frontMatter, link)
}

// replaceAll rewrites old to new in every regular file directly in dir.
func replaceAll(dir, old, new string) error {
	logrus.Infof("Replacing %q with %q", old, new)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			return filepath.SkipDir
		}
		in, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, bytes.ReplaceAll(in, []byte(old), []byte(new)), 0o644)
	})
}
