// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package executil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
)

type options struct {
	env []string
	dir string
}

type Opt func(*options) error

// WithEnv appends extra KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Opt {
	return func(o *options) error {
		o.env = append(o.env, env...)
		return nil
	}
}

// WithDir runs the command in dir.
func WithDir(dir string) Opt {
	return func(o *options) error {
		o.dir = dir
		return nil
	}
}

// RunCombined runs an external command and returns its combined output.
// On failure the output is folded into the error so callers do not have to
// log it separately.
func RunCombined(ctx context.Context, args []string, opts ...Opt) (string, error) {
	var o options
	for _, f := range opts {
		if err := f(&o); err != nil {
			return "", err
		}
	}

	logrus.Debugf("executing %v", shellescape.QuoteCommand(args))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}
	cmd.Dir = o.dir
	out, err := cmd.CombinedOutput()
	outString := strings.TrimSpace(string(out))
	if err != nil {
		if outString != "" {
			return outString, fmt.Errorf("failed to run %v: %w (output: %q)", args, err, outString)
		}
		return outString, fmt.Errorf("failed to run %v: %w", args, err)
	}
	return outString, nil
}

// RunPassthrough runs an external command wired to the caller's stdio.
// Exit codes propagate unchanged via exec.ExitError.
func RunPassthrough(ctx context.Context, args []string, opts ...Opt) error {
	var o options
	for _, f := range opts {
		if err := f(&o); err != nil {
			return err
		}
	}

	logrus.Debugf("executing %v", shellescape.QuoteCommand(args))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}
	cmd.Dir = o.dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = ForegroundSysProcAttr
	return cmd.Run()
}
