//go:build tools

// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools is used to explicitly pin tool versions.
// It's needed to work around @dependabot's lack of upgrading indirect dependencies.
package tools

import (
	_ "github.com/golangci/golangci-lint/v2/pkg/exitcodes"
)
