// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/sideffect263/metasploit-mcp/pkg/logtail"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

func serviceBashComplete(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, err := stackyaml.LoadOrDefault(dirnames.StackYAMLPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, svc := range store.Services(cfg) {
		names = append(names, svc.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func logTargetBashComplete(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, target := range logtail.Targets() {
		names = append(names, target.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
