// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package nginxconf renders and installs the nginx site fronting the stack:
// a static landing page plus, for the http transport, a reverse proxy to
// the MCP server.
package nginxconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	_ "embed"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/textutil"
)

//go:embed site.conf
var siteTemplate string

//go:embed index.html
var landingTemplate string

// managedMarker appears in the header of every rendered site file. A site
// file without it was written by somebody else and must not be silently
// overwritten.
const managedMarker = "Managed by msfmcpctl"

// IsManaged reports whether b was rendered by this package.
func IsManaged(b []byte) bool {
	return bytes.Contains(b, []byte(managedMarker))
}

func templateArgs(cfg *stackyaml.Stack) map[string]any {
	return map[string]any{
		"ListenPort": *cfg.Nginx.ListenPort,
		"ServerName": *cfg.Nginx.ServerName,
		"WebRoot":    *cfg.Nginx.WebRoot,
		"ProxyMCP":   *cfg.MCP.Transport == stackyaml.TransportHTTP,
		"MCPPort":    *cfg.MCP.Port,
		"HealthPath": *cfg.MCP.HealthPath,
		"RPCPort":    *cfg.RPC.Port,
	}
}

// RenderSite renders the sites-available file.
func RenderSite(cfg *stackyaml.Stack) ([]byte, error) {
	return textutil.ExecuteTemplate(siteTemplate, templateArgs(cfg))
}

// RenderLandingPage renders the static index.html served from the web root.
func RenderLandingPage(cfg *stackyaml.Stack) ([]byte, error) {
	return textutil.ExecuteTemplate(landingTemplate, templateArgs(cfg))
}

// WriteSite renders and installs the site file. The caller is responsible
// for backing up a pre-existing file and for validating afterwards.
func WriteSite(cfg *stackyaml.Stack) error {
	b, err := RenderSite(cfg)
	if err != nil {
		return err
	}
	sitePath := *cfg.Nginx.SitePath
	if err := os.MkdirAll(filepath.Dir(sitePath), 0o755); err != nil {
		return err
	}
	logrus.Infof("Writing the nginx site file %q", sitePath)
	return osutil.WriteFileAtomically(sitePath, b, 0o644)
}

// WriteLandingPage renders and installs index.html under the web root.
func WriteLandingPage(cfg *stackyaml.Stack) error {
	b, err := RenderLandingPage(cfg)
	if err != nil {
		return err
	}
	webRoot := *cfg.Nginx.WebRoot
	if err := os.MkdirAll(webRoot, 0o755); err != nil {
		return err
	}
	return osutil.WriteFileAtomically(filepath.Join(webRoot, "index.html"), b, 0o644)
}

// EnableSite links the site into sites-enabled. An existing symlink is
// replaced; anything else at the link path is left alone and reported.
func EnableSite(cfg *stackyaml.Stack) error {
	sitePath := *cfg.Nginx.SitePath
	linkPath := *cfg.Nginx.SiteLinkPath
	if fi, err := os.Lstat(linkPath); err == nil {
		if fi.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%q already exists and is not a symlink (hint: remove it manually and retry)", linkPath)
		}
		target, err := os.Readlink(linkPath)
		if err != nil {
			return err
		}
		if target == sitePath {
			return nil
		}
		if err := os.Remove(linkPath); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return err
	}
	logrus.Infof("Enabling the nginx site (%q -> %q)", linkPath, sitePath)
	return os.Symlink(sitePath, linkPath)
}

// DisableSite removes the sites-enabled symlink if it points at our site.
func DisableSite(cfg *stackyaml.Stack) error {
	linkPath := *cfg.Nginx.SiteLinkPath
	fi, err := os.Lstat(linkPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%q is not a symlink, refusing to remove it", linkPath)
	}
	if target, err := os.Readlink(linkPath); err != nil {
		return err
	} else if target != *cfg.Nginx.SitePath {
		logrus.Warnf("%q points at %q, not at our site; leaving it alone", linkPath, target)
		return nil
	}
	return os.Remove(linkPath)
}

// Validate runs `nginx -t` against the live configuration.
func Validate(ctx context.Context) error {
	if _, err := exec.LookPath("nginx"); err != nil {
		return fmt.Errorf("nginx is not installed (hint: run `msfmcpctl install`): %w", err)
	}
	out, err := executil.RunCombined(ctx, []string{"nginx", "-t"})
	if err != nil {
		return fmt.Errorf("nginx configuration validation failed: %w", err)
	}
	logrus.Debugf("nginx -t: %s", out)
	return nil
}
