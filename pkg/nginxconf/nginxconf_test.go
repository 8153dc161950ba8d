// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package nginxconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
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

func TestRenderSite(t *testing.T) {
	cfg := loadTestConfig(t, "")
	b, err := RenderSite(cfg)
	assert.NilError(t, err)
	s := string(b)
	assert.Assert(t, IsManaged(b))
	assert.Assert(t, strings.Contains(s, "listen 80;"), s)
	assert.Assert(t, strings.Contains(s, "server_name _;"), s)
	assert.Assert(t, strings.Contains(s, "root /var/www/metasploit-mcp;"), s)
	assert.Assert(t, strings.Contains(s, "proxy_pass http://127.0.0.1:8085/healthz;"), s)
	assert.Assert(t, strings.Contains(s, "proxy_pass http://127.0.0.1:8085/;"), s)
}

func TestRenderSiteStdio(t *testing.T) {
	cfg := loadTestConfig(t, `
mcp:
  transport: stdio
nginx:
  serverName: mcp.example.com
  listenPort: 8080
`)
	b, err := RenderSite(cfg)
	assert.NilError(t, err)
	s := string(b)
	assert.Assert(t, strings.Contains(s, "listen 8080;"), s)
	assert.Assert(t, strings.Contains(s, "server_name mcp.example.com;"), s)
	assert.Assert(t, !strings.Contains(s, "proxy_pass"), s)
}

func TestRenderLandingPage(t *testing.T) {
	cfg := loadTestConfig(t, "")
	b, err := RenderLandingPage(cfg)
	assert.NilError(t, err)
	s := string(b)
	assert.Assert(t, strings.Contains(s, "/healthz"), s)
	assert.Assert(t, strings.Contains(s, "port 55553"), s)
}

func TestIsManaged(t *testing.T) {
	assert.Assert(t, !IsManaged([]byte("server {\n  listen 80;\n}\n")))
}

func TestEnableSite(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "sites-available", "metasploit-mcp")
	linkPath := filepath.Join(dir, "sites-enabled", "metasploit-mcp")
	cfg := loadTestConfig(t, `
nginx:
  sitePath: `+sitePath+`
  siteLinkPath: `+linkPath+`
`)
	assert.NilError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
	assert.NilError(t, os.WriteFile(sitePath, []byte("server {}\n"), 0o644))

	assert.NilError(t, EnableSite(cfg))
	target, err := os.Readlink(linkPath)
	assert.NilError(t, err)
	assert.Equal(t, target, sitePath)

	// enabling twice is a no-op
	assert.NilError(t, EnableSite(cfg))

	// a stale symlink is replaced
	assert.NilError(t, os.Remove(linkPath))
	assert.NilError(t, os.Symlink(filepath.Join(dir, "elsewhere"), linkPath))
	assert.NilError(t, EnableSite(cfg))
	target, err = os.Readlink(linkPath)
	assert.NilError(t, err)
	assert.Equal(t, target, sitePath)

	// a regular file is never replaced
	assert.NilError(t, os.Remove(linkPath))
	assert.NilError(t, os.WriteFile(linkPath, []byte("foreign\n"), 0o644))
	assert.ErrorContains(t, EnableSite(cfg), "not a symlink")
}

func TestDisableSite(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "sites-available", "metasploit-mcp")
	linkPath := filepath.Join(dir, "sites-enabled", "metasploit-mcp")
	cfg := loadTestConfig(t, `
nginx:
  sitePath: `+sitePath+`
  siteLinkPath: `+linkPath+`
`)
	// nothing enabled
	assert.NilError(t, DisableSite(cfg))

	assert.NilError(t, os.MkdirAll(filepath.Dir(linkPath), 0o755))
	assert.NilError(t, os.Symlink(sitePath, linkPath))
	assert.NilError(t, DisableSite(cfg))
	_, err := os.Lstat(linkPath)
	assert.Assert(t, os.IsNotExist(err))

	// a symlink to a foreign site is left alone
	assert.NilError(t, os.Symlink(filepath.Join(dir, "elsewhere"), linkPath))
	assert.NilError(t, DisableSite(cfg))
	_, err = os.Lstat(linkPath)
	assert.NilError(t, err)
}
