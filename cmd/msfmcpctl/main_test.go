// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gotest.tools/v3/assert"
)

func findCommand(t *testing.T, app *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range app.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q is not registered", name)
	return nil
}

func TestNewApp(t *testing.T) {
	app := newApp()
	tests := []struct {
		name    string
		groupID string
		hidden  bool
	}{
		{name: "install", groupID: basicCommand},
		{name: "uninstall", groupID: basicCommand},
		{name: "start", groupID: basicCommand},
		{name: "stop", groupID: basicCommand},
		{name: "restart", groupID: basicCommand},
		{name: "status", groupID: basicCommand},
		{name: "logs", groupID: basicCommand},
		{name: "update", groupID: basicCommand},
		{name: "validate", groupID: advancedCommand},
		{name: "setup", groupID: advancedCommand},
		{name: "info", groupID: advancedCommand},
		{name: "rpcd", hidden: true},
		{name: "generate-doc", hidden: true},
		{name: "generate-jsonschema", hidden: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := findCommand(t, app, tt.name)
			assert.Equal(t, c.GroupID, tt.groupID)
			assert.Equal(t, c.Hidden, tt.hidden)
		})
	}
}

func TestProcessGlobalFlags(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.StandardLogger().SetFormatter(logrus.StandardLogger().Formatter)

	tests := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{name: "defaults", args: []string{}},
		{name: "json format", args: []string{"--log-format=json"}},
		{name: "bogus format", args: []string{"--log-format=journald"}, errorMsg: `unsupported log-format: "journald"`},
		{name: "debug level", args: []string{"--log-level=debug"}},
		{name: "bogus level", args: []string{"--log-level=noisy"}, errorMsg: "not a valid logrus Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			assert.NilError(t, app.ParseFlags(tt.args))
			err := processGlobalFlags(app)
			if tt.errorMsg == "" {
				assert.NilError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errorMsg)
			}
		})
	}
}

func TestWrapArgsError(t *testing.T) {
	cmd := &cobra.Command{Use: "frob", Short: "Frobnicate the stack"}
	fn := WrapArgsError(cobra.ExactArgs(1))

	assert.NilError(t, fn(cmd, []string{"x"}))

	err := fn(cmd, nil)
	assert.ErrorContains(t, err, "accepts 1 arg(s), received 0")
	assert.ErrorContains(t, err, "See 'frob --help'")
}
