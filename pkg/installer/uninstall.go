// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/nginxconf"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

type UninstallOptions struct {
	// KeepData preserves stack.yaml, the env file, logs, and backups.
	KeepData bool
}

// Uninstall removes everything Install created. The caller must stop the
// services first. Errors on individual items are logged and skipped so a
// partially-removed stack can be uninstalled again.
func Uninstall(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, opts UninstallOptions) error {
	if err := osutil.RequireRoot("uninstall"); err != nil {
		return err
	}

	if err := conn.DisableUnit(ctx, store.MCPUnit); err != nil {
		logrus.WithError(err).Warnf("Failed to disable %s", store.MCPUnit)
	}
	unitPath := *cfg.Paths.UnitPath
	logrus.Infof("Removing %q", unitPath)
	if err := os.Remove(unitPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Error(err)
	}
	if err := conn.DaemonReload(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to daemon-reload")
	}

	if err := uninstallSite(cfg, opts); err != nil {
		logrus.Error(err)
	}

	for _, dir := range []string{*cfg.Paths.AppDir, *cfg.Nginx.WebRoot} {
		logrus.Infof("Removing %q", dir)
		if err := os.RemoveAll(dir); err != nil {
			logrus.Error(err)
		}
	}

	if opts.KeepData {
		logrus.Infof("Keeping %q, %q, and %q (--keep-data)", dirnames.ConfigDir(), dirnames.StateDir(), dirnames.LogDir())
	} else {
		for _, dir := range []string{dirnames.ConfigDir(), dirnames.StateDir(), dirnames.LogDir(), dirnames.RunDir()} {
			logrus.Infof("Removing %q", dir)
			if err := os.RemoveAll(dir); err != nil {
				logrus.Error(err)
			}
		}
		// the env file usually lives under the config dir, but may not
		if err := os.Remove(*cfg.Paths.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.Error(err)
		}
	}

	logrus.Info("The Metasploit Framework, nginx, and the OS packages were left installed")
	return nil
}

func uninstallSite(cfg *stackyaml.Stack, opts UninstallOptions) error {
	if err := nginxconf.DisableSite(cfg); err != nil {
		logrus.Error(err)
	}
	sitePath := *cfg.Nginx.SitePath
	b, err := os.ReadFile(sitePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !nginxconf.IsManaged(b) {
		logrus.Warnf("Leaving %q in place (not written by msfmcpctl)", sitePath)
		return nil
	}
	if opts.KeepData {
		backupPath, err := osutil.BackupFile(sitePath, dirnames.BackupsDir())
		if err != nil {
			return err
		}
		logrus.Infof("Backed up %q to %q", sitePath, backupPath)
	}
	logrus.Infof("Removing %q", sitePath)
	if err := os.Remove(sitePath); err != nil {
		return fmt.Errorf("failed to remove the nginx site: %w", err)
	}
	return nil
}
