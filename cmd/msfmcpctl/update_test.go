// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestYQExpressions(t *testing.T) {
	cmd := newUpdateCommand()
	flags := cmd.Flags()
	assert.NilError(t, flags.Set("rpc-port", "55554"))
	assert.NilError(t, flags.Set("transport", "stdio"))
	assert.NilError(t, flags.Set("set", ".firewall.enabled = false"))
	exprs, err := yqExpressions(flags)
	assert.NilError(t, err)
	assert.DeepEqual(t, exprs, []string{
		".rpc.port = 55554",
		`.mcp.transport = "stdio"`,
		".firewall.enabled = false",
	})
}

func TestYQExpressionsBadTransport(t *testing.T) {
	cmd := newUpdateCommand()
	assert.NilError(t, cmd.Flags().Set("transport", "grpc"))
	_, err := yqExpressions(cmd.Flags())
	assert.ErrorContains(t, err, `got "grpc"`)
}

func TestYQExpressionsEmpty(t *testing.T) {
	exprs, err := yqExpressions(newUpdateCommand().Flags())
	assert.NilError(t, err)
	assert.Equal(t, len(exprs), 0)
}
