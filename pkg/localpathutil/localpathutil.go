// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package localpathutil expands user-supplied local paths.
package localpathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Expand makes orig absolute, expanding a leading "~" or "~/" to the
// current user's home directory. "~user/..." forms are not supported.
func Expand(orig string) (string, error) {
	switch {
	case orig == "":
		return "", errors.New("empty path")
	case orig == "~", strings.HasPrefix(orig, "~/"):
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Abs(homeDir + orig[1:])
	case strings.HasPrefix(orig, "~"):
		return "", fmt.Errorf("unexpandable path %q", orig)
	}
	return filepath.Abs(orig)
}
