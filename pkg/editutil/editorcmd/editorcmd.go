// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// From https://raw.githubusercontent.com/norouter/norouter/v0.6.5/cmd/norouter/editorcmd/editorcmd.go
// SPDX-FileCopyrightText: Copyright (C) NoRouter authors.
// LICENSE: https://github.com/norouter/norouter/blob/v0.6.5/LICENSE

package editorcmd

import (
	"os"
	"os/exec"
)

// Detect detects a text editor command.
// Returns an empty string when no editor is found.
func Detect() string {
	var candidates = []string{
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		"editor",
		"nano",
		"vim",
		"vi",
		"emacs",
	}
	for _, f := range candidates {
		if f == "" {
			continue
		}
		x, err := exec.LookPath(f)
		if err == nil {
			return x
		}
	}
	return ""
}
