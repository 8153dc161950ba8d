// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/sideffect263/metasploit-mcp/pkg/nginxconf"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

func loadTestConfig(t *testing.T, b string) *stackyaml.Stack {
	t.Helper()
	for _, k := range []string{"MSF_PASSWORD", "MSF_SERVER", "MSF_PORT", "MSF_SSL"} {
		t.Setenv(k, "")
	}
	cfg, err := stackyaml.Load([]byte(b))
	assert.NilError(t, err)
	return cfg
}

func TestEnvEntries(t *testing.T) {
	cfg := loadTestConfig(t, `
rpc:
  password: hunter2
  address: 0.0.0.0
  port: 60000
  ssl: true
`)
	entries := EnvEntries(cfg)
	assert.Equal(t, len(entries), 4)
	assert.Equal(t, entries[0].Key, "MSF_PASSWORD")
	assert.Equal(t, entries[0].Value, "hunter2")
	assert.Equal(t, entries[1].Value, "0.0.0.0")
	assert.Equal(t, entries[2].Value, "60000")
	assert.Equal(t, entries[3].Value, "true")
}

func TestFirewallRules(t *testing.T) {
	cfg := loadTestConfig(t, `
nginx:
  listenPort: 8080
firewall:
  enabled: true
  allowPorts: [9000]
`)
	rules := FirewallRules(cfg)
	assert.DeepEqual(t, rules, [][]string{
		{"ufw", "allow", "OpenSSH"},
		{"ufw", "allow", "8080/tcp"},
		{"ufw", "allow", "55553/tcp"},
		{"ufw", "allow", "9000/tcp"},
		{"ufw", "--force", "enable"},
	})
}

// nginxTestEnv puts a stub nginx on PATH and points the site, link, and
// state paths into temp dirs.
func nginxTestEnv(t *testing.T, nginxScript string) (*installer, string) {
	t.Helper()
	binDir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(binDir, "nginx"), []byte(nginxScript), 0o755))
	t.Setenv("PATH", binDir)
	t.Setenv("MSFMCP_STATE_DIR", t.TempDir())

	dir := t.TempDir()
	sitePath := filepath.Join(dir, "sites-available", "metasploit-mcp")
	cfg := loadTestConfig(t, `
nginx:
  sitePath: `+sitePath+`
  siteLinkPath: `+filepath.Join(dir, "sites-enabled", "metasploit-mcp")+`
`)
	return &installer{cfg: cfg}, sitePath
}

func backupsOf(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dirnames.BackupsDir())
	if os.IsNotExist(err) {
		return nil
	}
	assert.NilError(t, err)
	return entries
}

func TestNginxSite(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	ctx := context.Background()

	t.Run("fresh", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 0\n")
		assert.NilError(t, inst.nginxSite(ctx))
		b, err := os.ReadFile(sitePath)
		assert.NilError(t, err)
		assert.Assert(t, nginxconf.IsManaged(b))
		target, err := os.Readlink(*inst.cfg.Nginx.SiteLinkPath)
		assert.NilError(t, err)
		assert.Equal(t, target, sitePath)
		assert.Equal(t, len(backupsOf(t)), 0)
	})

	t.Run("foreign site without confirmation", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 0\n")
		assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
		assert.NilError(t, os.WriteFile(sitePath, []byte("server {}\n"), 0o644))
		assert.NilError(t, inst.nginxSite(ctx))
		b, err := os.ReadFile(sitePath)
		assert.NilError(t, err)
		assert.Equal(t, string(b), "server {}\n")
		assert.Equal(t, len(backupsOf(t)), 0)
	})

	t.Run("foreign site confirmed", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 0\n")
		inst.opts.Confirm = func(string, bool) (bool, error) { return true, nil }
		assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
		assert.NilError(t, os.WriteFile(sitePath, []byte("server {}\n"), 0o644))
		assert.NilError(t, inst.nginxSite(ctx))
		b, err := os.ReadFile(sitePath)
		assert.NilError(t, err)
		assert.Assert(t, nginxconf.IsManaged(b))
		assert.Equal(t, len(backupsOf(t)), 1)
	})

	t.Run("managed site is updated without confirmation", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 0\n")
		inst.opts.Confirm = func(string, bool) (bool, error) {
			t.Fatal("a managed site must not require confirmation")
			return false, nil
		}
		stale := "# Managed by msfmcpctl. Manual edits are overwritten by `msfmcpctl update`.\nserver {}\n"
		assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
		assert.NilError(t, os.WriteFile(sitePath, []byte(stale), 0o644))
		assert.NilError(t, inst.nginxSite(ctx))
		b, err := os.ReadFile(sitePath)
		assert.NilError(t, err)
		assert.Assert(t, string(b) != stale)
		assert.Equal(t, len(backupsOf(t)), 1)
	})

	t.Run("validation failure rolls back", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 1\n")
		stale := "# Managed by msfmcpctl. Manual edits are overwritten by `msfmcpctl update`.\nserver {}\n"
		assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
		assert.NilError(t, os.WriteFile(sitePath, []byte(stale), 0o644))
		assert.ErrorContains(t, inst.nginxSite(ctx), "nginx")
		b, err := os.ReadFile(sitePath)
		assert.NilError(t, err)
		assert.Equal(t, string(b), stale)
	})

	t.Run("validation failure on a fresh install removes the site", func(t *testing.T) {
		inst, sitePath := nginxTestEnv(t, "#!/bin/sh\nexit 1\n")
		assert.ErrorContains(t, inst.nginxSite(ctx), "nginx")
		_, err := os.Stat(sitePath)
		assert.Assert(t, os.IsNotExist(err))
	})
}

func TestUninstallSite(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "sites-available", "metasploit-mcp")
	t.Setenv("MSFMCP_STATE_DIR", t.TempDir())
	cfg := loadTestConfig(t, `
nginx:
  sitePath: `+sitePath+`
  siteLinkPath: `+filepath.Join(dir, "sites-enabled", "metasploit-mcp")+`
`)

	// missing site is fine
	assert.NilError(t, uninstallSite(cfg, UninstallOptions{}))

	// a managed site is removed; --keep-data leaves a backup
	managed := "# Managed by msfmcpctl. Manual edits are overwritten by `msfmcpctl update`.\nserver {}\n"
	assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
	assert.NilError(t, os.WriteFile(sitePath, []byte(managed), 0o644))
	assert.NilError(t, uninstallSite(cfg, UninstallOptions{KeepData: true}))
	_, err := os.Stat(sitePath)
	assert.Assert(t, os.IsNotExist(err))
	assert.Equal(t, len(backupsOf(t)), 1)

	// a foreign site is left alone
	assert.NilError(t, os.WriteFile(sitePath, []byte("server {}\n"), 0o644))
	assert.NilError(t, uninstallSite(cfg, UninstallOptions{}))
	_, err = os.Stat(sitePath)
	assert.NilError(t, err)
}
