// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package stackinfo

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNew(t *testing.T) {
	for _, k := range []string{"MSF_PASSWORD", "MSF_SERVER", "MSF_PORT", "MSF_SSL"} {
		t.Setenv(k, "")
	}
	configDir := t.TempDir()
	t.Setenv("MSFMCP_CONFIG_DIR", configDir)
	t.Setenv("MSFMCP_STATE_DIR", t.TempDir())
	t.Setenv("MSFMCP_LOG_DIR", t.TempDir())
	t.Setenv("MSFMCP_RUN_DIR", t.TempDir())

	info, err := New()
	assert.NilError(t, err)
	assert.Assert(t, !info.Installed)
	assert.Equal(t, *info.Stack.RPC.Password, "********")
	assert.Equal(t, info.Dirs.Config, configDir)
	assert.Assert(t, len(info.System.Ports) > 0)

	assert.NilError(t, os.WriteFile(filepath.Join(configDir, "stack.yaml"), []byte("rpc:\n  port: 60000\n"), 0o644))
	info, err = New()
	assert.NilError(t, err)
	assert.Assert(t, info.Installed)
	assert.Equal(t, *info.Stack.RPC.Port, 60000)
}
