// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"fmt"
	"os"
)

// IsRoot reports whether the current process runs with euid 0.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireRoot returns an error when the current process is not running as
// root. Commands that mutate system state call this before touching anything.
func RequireRoot(command string) error {
	if IsRoot() {
		return nil
	}
	return fmt.Errorf("`%s` must run as root (hint: sudo msfmcpctl %s)", command, command)
}
