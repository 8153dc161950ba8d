// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package jsonschemautil

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "rpc": {
      "type": "object",
      "properties": {
        "port": {"type": "integer", "minimum": 1, "maximum": 65535}
      }
    },
    "mcp": {
      "type": "object",
      "properties": {
        "transport": {"enum": ["http", "stdio"]}
      }
    }
  }
}`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateValidInstance(t *testing.T) {
	schema := writeTestFile(t, "schema.json", testSchema)
	instance := writeTestFile(t, "stack.yaml", `
rpc:
  port: 55553
mcp:
  transport: http
`)
	assert.NilError(t, Validate(schema, instance))
}

func TestValidateInvalidInstance(t *testing.T) {
	schema := writeTestFile(t, "schema.json", testSchema)
	instance := writeTestFile(t, "stack.yaml", `
rpc:
  port: 111111
mcp:
  transport: grpc
`)
	err := Validate(schema, instance)
	assert.ErrorContains(t, err, "jsonschema validation failed")
}
