// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package filenames defines the names of the files that appear under the
// config, state, run, and log directories.
package filenames

// Files inside the config directory.

const (
	StackYAML = "stack.yaml"
	EnvFile   = "env"
)

// Files inside the run directory.

const (
	SupervisorPID = "rpcd.pid"
	MsfrpcdPID    = "msfrpcd.pid"
)

// Files inside the log directory. The stdout log carries the supervisor
// event stream; the stderr log carries its logs and the msfrpcd output.

const (
	SupervisorStdoutLog = "rpcd.stdout.log"
	SupervisorStderrLog = "rpcd.stderr.log"
)

// Directories inside the state directory.

const (
	BackupsDir = "backups"
)
