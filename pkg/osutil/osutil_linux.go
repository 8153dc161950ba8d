// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"syscall"
)

// SigInt is the value of SIGINT.
const SigInt = Signal(syscall.SIGINT)

// SigTerm is the value of SIGTERM.
const SigTerm = Signal(syscall.SIGTERM)

// SigKill is the value of SIGKILL.
const SigKill = Signal(syscall.SIGKILL)

type Signal syscall.Signal

func SysKill(pid int, sig Signal) error {
	return syscall.Kill(pid, syscall.Signal(sig))
}
