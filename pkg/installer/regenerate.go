// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/envfile"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
)

// Regenerate rewrites the files derived from stack.yaml after the config
// changed: the env file, the landing page, the nginx site, the systemd
// unit, and the firewall rules. Unlike Install it never generates a
// password and never touches packages or the app.
func Regenerate(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, opts Options) error {
	inst := &installer{conn: conn, cfg: cfg, opts: opts}
	steps := []struct {
		description string
		fn          func(context.Context) error
	}{
		{"environment file", inst.regenerateEnvFile},
		{"landing page", inst.landingPage},
		{"nginx site", inst.nginxSite},
		{"systemd unit", inst.systemdUnit},
		{"firewall", inst.firewall},
	}
	for i, step := range steps {
		logrus.Infof("Regenerating %d of %d: %q", i+1, len(steps), step.description)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to regenerate %q: %w", step.description, err)
		}
	}
	return nil
}

// regenerateEnvFile is the envFile step without the password generation:
// on update, a default password in stack.yaml is the user's explicit
// choice.
func (inst *installer) regenerateEnvFile(_ context.Context) error {
	envPath := *inst.cfg.Paths.EnvFile
	if err := os.MkdirAll(filepath.Dir(envPath), 0o755); err != nil {
		return err
	}
	return envfile.UpsertFile(envPath, EnvEntries(inst.cfg), 0o600)
}
