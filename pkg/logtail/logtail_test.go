// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package logtail

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestSeekOffsetLastLines(t *testing.T) {
	write := func(t *testing.T, content string) *os.File {
		t.Helper()
		path := filepath.Join(t.TempDir(), "log")
		assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
		f, err := os.Open(path)
		assert.NilError(t, err)
		t.Cleanup(func() { f.Close() })
		return f
	}

	t.Run("trailing newline", func(t *testing.T) {
		f := write(t, "a\nb\nc\n")
		off, err := seekOffsetLastLines(f, 2)
		assert.NilError(t, err)
		assert.Equal(t, off, int64(2))
	})
	t.Run("no trailing newline", func(t *testing.T) {
		f := write(t, "a\nb\nc")
		off, err := seekOffsetLastLines(f, 2)
		assert.NilError(t, err)
		assert.Equal(t, off, int64(2))
	})
	t.Run("more lines requested than present", func(t *testing.T) {
		f := write(t, "a\nb\n")
		off, err := seekOffsetLastLines(f, 10)
		assert.NilError(t, err)
		assert.Equal(t, off, int64(0))
	})
	t.Run("empty", func(t *testing.T) {
		f := write(t, "")
		off, err := seekOffsetLastLines(f, 10)
		assert.NilError(t, err)
		assert.Equal(t, off, int64(0))
	})
	t.Run("spans blocks", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 20000; i++ {
			fmt.Fprintf(&sb, "line %05d\n", i)
		}
		content := sb.String()
		f := write(t, content)
		off, err := seekOffsetLastLines(f, 3)
		assert.NilError(t, err)
		assert.Equal(t, content[off:], "line 19997\nline 19998\nline 19999\n")
	})
}

func TestShowFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	assert.NilError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	var buf bytes.Buffer
	err := Show(context.Background(), &buf, Target{Name: "x", Path: path}, 2, false)
	assert.NilError(t, err)
	assert.Equal(t, buf.String(), "two\nthree\n")
}

func TestShowFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	var buf bytes.Buffer
	err := Show(context.Background(), &buf, Target{Name: "x", Path: path}, 2, false)
	assert.ErrorContains(t, err, "cannot open the log file")
}

func TestTargets(t *testing.T) {
	t.Setenv("MSFMCP_LOG_DIR", "/var/log/metasploit-mcp")
	targets := Targets()
	names := make([]string, len(targets))
	for i, tgt := range targets {
		names[i] = tgt.Name
	}
	assert.DeepEqual(t, names, []string{"mcp", "nginx", "nginx-access", "nginx-error", "rpcd"})

	tgt, err := Lookup(targets, "rpcd")
	assert.NilError(t, err)
	assert.Equal(t, tgt.Path, "/var/log/metasploit-mcp/rpcd.stderr.log")

	_, err = Lookup(targets, "bogus")
	assert.ErrorContains(t, err, `unknown log target "bogus"`)
}
