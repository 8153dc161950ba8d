// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package osutil

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func SignalName(sig os.Signal) string {
	return unix.SignalName(sig.(syscall.Signal))
}
