// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package prereq

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseMetasploitVersion(t *testing.T) {
	t.Run("dev suffix is stripped", func(t *testing.T) {
		ver, err := parseMetasploitVersion("Framework Version: 6.4.18-dev")
		assert.NilError(t, err)
		assert.Equal(t, ver.String(), "6.4.18")
		assert.Equal(t, int(ver.Major), 6)
	})
	t.Run("with banner", func(t *testing.T) {
		out := "Metasploit tip: Use sessions -1 to interact\nFramework Version: 6.3.55-dev\n"
		ver, err := parseMetasploitVersion(out)
		assert.NilError(t, err)
		assert.Equal(t, int(ver.Minor), 3)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := parseMetasploitVersion("command not found")
		assert.ErrorContains(t, err, "failed to find a version")
	})
}

func TestMetasploitVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "msfconsole")
	assert.NilError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 'Framework Version: 6.4.18-dev'\n"), 0o755))
	t.Setenv("PATH", binDir)

	ver, err := MetasploitVersion(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, ver.String(), "6.4.18")
}

func TestMetasploitCheckTooOld(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "msfconsole")
	assert.NilError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 'Framework Version: 5.0.101-dev'\n"), 0o755))
	t.Setenv("PATH", binDir)

	c := metasploitCheck(context.Background())
	assert.Assert(t, !c.OK)
	assert.Assert(t, strings.Contains(c.Detail, "older than 6.0.0"), c.Detail)
	assert.Assert(t, strings.Contains(c.Remedy, "msfupdate"), c.Remedy)
}

func TestWrite(t *testing.T) {
	checks := []Check{
		{Name: "python3", OK: true, Detail: "/usr/bin/python3"},
		{Name: "msfconsole", OK: false, Detail: "not found in PATH", Remedy: "run `msfmcpctl install`"},
	}
	var buf bytes.Buffer
	assert.NilError(t, Write(&buf, checks))
	out := buf.String()
	assert.Assert(t, strings.Contains(out, "NAME"), out)
	assert.Assert(t, strings.Contains(out, "/usr/bin/python3"), out)
	assert.Assert(t, strings.Contains(out, "hint: run `msfmcpctl install`"), out)
}
