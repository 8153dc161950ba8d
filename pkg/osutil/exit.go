// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"errors"
	"os"
	"os/exec"
)

// HandleExitError exits with the child's exit code when err wraps an
// *exec.ExitError, so failures of passthrough commands (journalctl,
// nginx -t) propagate unchanged. Other errors are left to the caller.
func HandleExitError(err error) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
}
