// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package installer provisions the stack on a Debian-like systemd host:
// OS packages, the Metasploit Framework, Python dependencies, the MCP
// server app, the nginx site, the systemd unit, and firewall rules.
//
// Every step converges: re-running `install` repairs drift instead of
// duplicating work.
package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/coreos/go-semver/semver"
	"github.com/opencontainers/go-digest"
	"github.com/sethvargo/go-password/password"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/downloader"
	"github.com/sideffect263/metasploit-mcp/pkg/envfile"
	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/lockutil"
	"github.com/sideffect263/metasploit-mcp/pkg/nginxconf"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/prereq"
	"github.com/sideffect263/metasploit-mcp/pkg/ptr"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
)

// generatedPasswordLength is used when `install` replaces the documented
// default RPC password with a random one.
const generatedPasswordLength = 24

type Options struct {
	// AppSource is the directory holding the MCP server app
	// (metasploit_mcp_server.py and optionally requirements.txt).
	AppSource string
	// SkipPackages skips the OS package step.
	SkipPackages bool
	// Confirm is consulted before overwriting files not written by us.
	// nil means non-interactive; the answer is then always no.
	Confirm func(message string, defaultParam bool) (bool, error)
}

type installer struct {
	conn *sdunit.Conn
	cfg  *stackyaml.Stack
	opts Options
}

// Install provisions everything the stack needs, under a lock on the state
// directory. It does not start the services; that is the caller's decision.
// cfg may be mutated (the generated RPC password is written back into it).
func Install(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, opts Options) error {
	if err := osutil.RequireRoot("install"); err != nil {
		return err
	}
	if err := dirnames.EnsureAll(); err != nil {
		return err
	}
	return lockutil.WithDirLock(dirnames.StateDir(), func() error {
		inst := &installer{conn: conn, cfg: cfg, opts: opts}
		steps := []struct {
			description string
			fn          func(context.Context) error
		}{
			{"OS packages", inst.aptPackages},
			{"Metasploit Framework", inst.ensureMetasploit},
			{"Python packages", inst.pipPackages},
			{"environment file", inst.envFile},
			{"MCP server app", inst.deployApp},
			{"landing page", inst.landingPage},
			{"nginx site", inst.nginxSite},
			{"systemd unit", inst.systemdUnit},
			{"firewall", inst.firewall},
			{"stack.yaml", inst.writeStackYAML},
		}
		for i, step := range steps {
			logrus.Infof("Running the installation step %d of %d: %q", i+1, len(steps), step.description)
			if err := step.fn(ctx); err != nil {
				return fmt.Errorf("installation step %q failed: %w", step.description, err)
			}
		}
		return nil
	})
}

func (inst *installer) confirm(message string, defaultParam bool) (bool, error) {
	if inst.opts.Confirm == nil {
		return false, nil
	}
	return inst.opts.Confirm(message, defaultParam)
}

func (inst *installer) aptPackages(ctx context.Context) error {
	if inst.opts.SkipPackages {
		logrus.Info("Skipping the OS package step (--skip-packages)")
		return nil
	}
	pkgs := inst.cfg.Install.AptPackages
	if len(pkgs) == 0 {
		return nil
	}
	if _, err := exec.LookPath("apt-get"); err != nil {
		return fmt.Errorf("apt-get is not available; this host does not look Debian-like (hint: install %v manually and re-run with --skip-packages)", pkgs)
	}
	env := executil.WithEnv("DEBIAN_FRONTEND=noninteractive")
	if err := executil.RunPassthrough(ctx, []string{"apt-get", "update", "-q"}, env); err != nil {
		return err
	}
	args := append([]string{"apt-get", "install", "-y", "-q"}, pkgs...)
	return executil.RunPassthrough(ctx, args, env)
}

func (inst *installer) ensureMetasploit(ctx context.Context) error {
	if p, err := exec.LookPath("msfconsole"); err == nil {
		ver, err := prereq.MetasploitVersion(ctx)
		if err != nil {
			logrus.WithError(err).Warnf("msfconsole is installed (%q) but its version could not be determined", p)
			return nil
		}
		logrus.Infof("Metasploit Framework %s is already installed", ver)
		if ver.LessThan(*semver.New(prereq.MinMetasploitVersion)) {
			logrus.Warnf("Version %s is older than %s (hint: run `msfupdate`)", ver, prereq.MinMetasploitVersion)
		}
		return nil
	}

	localPath := filepath.Join(dirnames.StateDir(), "msfinstall")
	dlOpts := []downloader.Opt{downloader.WithDescription("msfinstall")}
	if d := inst.cfg.Install.MsfInstallerDigest; d != nil && *d != "" {
		dlOpts = append(dlOpts, downloader.WithExpectedDigest(digest.Digest(*d)))
	}
	res, err := downloader.Download(ctx, localPath, *inst.cfg.Install.MsfInstallerURL, dlOpts...)
	if err != nil {
		return fmt.Errorf("failed to download the Metasploit installer: %w", err)
	}
	logrus.Debugf("downloaded the Metasploit installer: %+v", res)
	if err := os.Chmod(localPath, 0o755); err != nil {
		return err
	}
	logrus.Info("Running the Metasploit installer (this takes a while)")
	if err := executil.RunPassthrough(ctx, []string{localPath}); err != nil {
		return err
	}
	if _, err := exec.LookPath("msfconsole"); err != nil {
		return fmt.Errorf("the Metasploit installer finished but msfconsole is still not in PATH: %w", err)
	}
	return nil
}

func (inst *installer) pipPackages(ctx context.Context) error {
	pkgs := inst.cfg.Install.PipPackages
	if len(pkgs) == 0 {
		return nil
	}
	if _, err := exec.LookPath("pip3"); err != nil {
		return fmt.Errorf("pip3 is not available (hint: apt-get install -y python3-pip): %w", err)
	}
	args := append([]string{"pip3", "install", "--upgrade"}, pkgs...)
	return executil.RunPassthrough(ctx, args)
}

func (inst *installer) envFile(_ context.Context) error {
	if *inst.cfg.RPC.Password == stackyaml.DefaultRPCPassword {
		generated, err := password.Generate(generatedPasswordLength, generatedPasswordLength/4, 0, false, false)
		if err != nil {
			return err
		}
		logrus.Info("Generated a random RPC password (persisted in stack.yaml and the env file)")
		inst.cfg.RPC.Password = ptr.Of(generated)
	}
	envPath := *inst.cfg.Paths.EnvFile
	if err := os.MkdirAll(filepath.Dir(envPath), 0o755); err != nil {
		return err
	}
	// 0600: the file carries the RPC password
	return envfile.UpsertFile(envPath, EnvEntries(inst.cfg), 0o600)
}

// EnvEntries returns the MSF_* environment contract for cfg, as consumed by
// the MCP server unit and exported by `setup` for interactive shells.
func EnvEntries(cfg *stackyaml.Stack) []envfile.Entry {
	return []envfile.Entry{
		{Key: "MSF_PASSWORD", Value: *cfg.RPC.Password},
		{Key: "MSF_SERVER", Value: *cfg.RPC.Address},
		{Key: "MSF_PORT", Value: strconv.Itoa(*cfg.RPC.Port)},
		{Key: "MSF_SSL", Value: strconv.FormatBool(*cfg.RPC.SSL)},
	}
}

func (inst *installer) deployApp(_ context.Context) error {
	appDir := *inst.cfg.Paths.AppDir
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return err
	}
	src := filepath.Join(inst.opts.AppSource, stackyaml.ServerScript)
	if !osutil.FileExists(src) {
		return fmt.Errorf("the MCP server app %q was not found under %q (hint: run from a checkout of the app, or pass --app-source)", stackyaml.ServerScript, inst.opts.AppSource)
	}
	dst := filepath.Join(appDir, stackyaml.ServerScript)
	logrus.Infof("Copying %q to %q", src, dst)
	if err := osutil.CopyFile(dst, src); err != nil {
		return err
	}
	reqSrc := filepath.Join(inst.opts.AppSource, "requirements.txt")
	if osutil.FileExists(reqSrc) {
		if err := osutil.CopyFile(filepath.Join(appDir, "requirements.txt"), reqSrc); err != nil {
			return err
		}
	}
	return nil
}

func (inst *installer) landingPage(_ context.Context) error {
	return nginxconf.WriteLandingPage(inst.cfg)
}

func (inst *installer) nginxSite(ctx context.Context) error {
	sitePath := *inst.cfg.Nginx.SitePath
	rendered, err := nginxconf.RenderSite(inst.cfg)
	if err != nil {
		return err
	}

	var backupPath string
	existing, err := os.ReadFile(sitePath)
	switch {
	case err == nil:
		if bytes.Equal(existing, rendered) {
			logrus.Debugf("%q is already up to date", sitePath)
			return nginxconf.EnableSite(inst.cfg)
		}
		if !nginxconf.IsManaged(existing) {
			ok, err := inst.confirm(fmt.Sprintf("Overwrite the existing nginx site %q (a backup will be kept)?", sitePath), false)
			if err != nil {
				return err
			}
			if !ok {
				logrus.Warnf("Leaving the existing nginx site %q untouched", sitePath)
				return nil
			}
		}
		backupPath, err = osutil.BackupFile(sitePath, dirnames.BackupsDir())
		if err != nil {
			return err
		}
		logrus.Infof("Backed up %q to %q", sitePath, backupPath)
	case errors.Is(err, os.ErrNotExist):
		// fresh install
	default:
		return err
	}

	if err := nginxconf.WriteSite(inst.cfg); err != nil {
		return err
	}
	if err := nginxconf.EnableSite(inst.cfg); err != nil {
		return err
	}
	if err := nginxconf.Validate(ctx); err != nil {
		inst.rollbackSite(backupPath)
		return err
	}
	return nil
}

// rollbackSite undoes a site write that failed validation, so nginx never
// reloads into a broken configuration.
func (inst *installer) rollbackSite(backupPath string) {
	sitePath := *inst.cfg.Nginx.SitePath
	if backupPath != "" {
		logrus.Warnf("Restoring %q from %q", sitePath, backupPath)
		if err := osutil.CopyFile(sitePath, backupPath); err != nil {
			logrus.Error(err)
		}
		return
	}
	logrus.Warnf("Removing the invalid nginx site %q", sitePath)
	if err := nginxconf.DisableSite(inst.cfg); err != nil {
		logrus.Error(err)
	}
	if err := os.Remove(sitePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Error(err)
	}
}

func (inst *installer) systemdUnit(ctx context.Context) error {
	if err := sdunit.WriteUnit(inst.cfg); err != nil {
		return err
	}
	if err := inst.conn.DaemonReload(ctx); err != nil {
		return err
	}
	return inst.conn.EnableUnit(ctx, store.MCPUnit)
}

func (inst *installer) firewall(ctx context.Context) error {
	if !*inst.cfg.Firewall.Enabled {
		logrus.Debug("the firewall step is disabled in stack.yaml")
		return nil
	}
	if _, err := exec.LookPath("ufw"); err != nil {
		logrus.Warn("ufw is not available; skipping the firewall step")
		return nil
	}
	for _, rule := range FirewallRules(inst.cfg) {
		out, err := executil.RunCombined(ctx, rule)
		if err != nil {
			return err
		}
		logrus.Debugf("%v: %s", rule, out)
	}
	return nil
}

// FirewallRules returns the ufw invocations for cfg: SSH stays reachable,
// then the nginx listener, the RPC port, and any extra allowPorts.
func FirewallRules(cfg *stackyaml.Stack) [][]string {
	rules := [][]string{
		{"ufw", "allow", "OpenSSH"},
		{"ufw", "allow", fmt.Sprintf("%d/tcp", *cfg.Nginx.ListenPort)},
		{"ufw", "allow", fmt.Sprintf("%d/tcp", *cfg.RPC.Port)},
	}
	for _, p := range cfg.Firewall.AllowPorts {
		rules = append(rules, []string{"ufw", "allow", fmt.Sprintf("%d/tcp", p)})
	}
	return append(rules, []string{"ufw", "--force", "enable"})
}

func (inst *installer) writeStackYAML(_ context.Context) error {
	path := dirnames.StackYAMLPath()
	logrus.Infof("Writing %q", path)
	return stackyaml.SaveFile(path, inst.cfg)
}
