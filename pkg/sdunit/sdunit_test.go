// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package sdunit

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
)

func loadTestConfig(t *testing.T, yaml string) *stackyaml.Stack {
	t.Helper()
	for _, k := range []string{"MSF_PASSWORD", "MSF_SERVER", "MSF_PORT", "MSF_SSL", "MSFMCP_CONFIG_DIR"} {
		t.Setenv(k, "")
	}
	cfg, err := stackyaml.Load([]byte(yaml))
	assert.NilError(t, err)
	return cfg
}

func TestRenderUnit(t *testing.T) {
	cfg := loadTestConfig(t, "")
	b, err := RenderUnit(cfg)
	assert.NilError(t, err)
	unit := string(b)
	assert.Assert(t, strings.Contains(unit, "ExecStart=python3 /opt/metasploit-mcp/metasploit_mcp_server.py --transport http --host 127.0.0.1 --port 8085\n"), unit)
	assert.Assert(t, strings.Contains(unit, "EnvironmentFile=/etc/metasploit-mcp/env\n"), unit)
	assert.Assert(t, strings.Contains(unit, "WorkingDirectory=/opt/metasploit-mcp\n"), unit)
	assert.Assert(t, strings.Contains(unit, "Restart=on-failure\n"), unit)
	assert.Assert(t, strings.Contains(unit, "WantedBy=multi-user.target\n"), unit)
}

func TestRenderUnitStdio(t *testing.T) {
	cfg := loadTestConfig(t, "mcp:\n  transport: stdio\n  pythonBin: /usr/bin/python3.12\n")
	b, err := RenderUnit(cfg)
	assert.NilError(t, err)
	unit := string(b)
	assert.Assert(t, strings.Contains(unit, "ExecStart=/usr/bin/python3.12 /opt/metasploit-mcp/metasploit_mcp_server.py --transport stdio\n"), unit)
	assert.Assert(t, !strings.Contains(unit, "--port"), unit)
}
