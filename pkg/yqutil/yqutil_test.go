// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package yqutil

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, Join(nil), "")
	assert.Equal(t, Join([]string{`.rpc.port = 55553`}), `.rpc.port = 55553`)
	assert.Equal(t, Join([]string{`.rpc.port = 55553`, `.rpc.ssl = true`}), `.rpc.port = 55553 | .rpc.ssl = true`)
}

func TestValidateContent(t *testing.T) {
	content := `
# comment
rpc:
  port: 55553
`
	assert.NilError(t, ValidateContent([]byte(content)))
}

func TestValidateContentError(t *testing.T) {
	content := `
- rpc: port
  rpc
  port
`
	err := ValidateContent([]byte(content))
	assert.ErrorContains(t, err, "could not find expected")
}

func TestEvaluateExpressionEmpty(t *testing.T) {
	content := `
rpc:
  port: 55553
`
	out, err := EvaluateExpression("", []byte(content))
	assert.NilError(t, err)
	assert.Equal(t, string(out), content)
}

func TestEvaluateExpressionSimple(t *testing.T) {
	expression := `.port = 55553 | .address = "0.0.0.0"`
	content := `
# RPC port
port: null

# RPC listen address
address: null
`
	// Note: yamlfmt restores the empty lines the yq encoder drops
	expected := `
# RPC port
port: 55553

# RPC listen address
address: 0.0.0.0
`
	out, err := EvaluateExpression(expression, []byte(content))
	assert.NilError(t, err)
	assert.Equal(t, string(out), expected)
}

func TestEvaluateExpressionSequence(t *testing.T) {
	expression := `.firewall.allowPorts += [9000]`
	content := `
firewall:
  # rules are applied on install and update
  enabled: true
  allowPorts:
  - 8080
`
	// Note: yq emits indented sequences; yamlfmt restores the
	// indentless style
	expected := `
firewall:
  # rules are applied on install and update
  enabled: true
  allowPorts:
  - 8080
  - 9000
`
	out, err := EvaluateExpression(expression, []byte(content))
	assert.NilError(t, err)
	assert.Equal(t, string(out), expected)
}

func TestEvaluateExpressionError(t *testing.T) {
	expression := `port: 55553`
	_, err := EvaluateExpression(expression, []byte(""))
	assert.ErrorContains(t, err, "invalid input text")
}
