// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package dirnames resolves the directories the stack reads and writes.
//
// Every directory can be redirected through an MSFMCP_*_DIR environment
// variable, which keeps tests and non-root development off the system paths.
package dirnames

import (
	"os"
	"path/filepath"

	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

const (
	DefaultConfigDir = "/etc/metasploit-mcp"
	DefaultStateDir  = "/var/lib/metasploit-mcp"
	DefaultLogDir    = "/var/log/metasploit-mcp"
	DefaultRunDir    = "/run/metasploit-mcp"
)

// ConfigDir returns the directory holding stack.yaml and the env file
// ($MSFMCP_CONFIG_DIR, or /etc/metasploit-mcp).
func ConfigDir() string {
	if dir := os.Getenv("MSFMCP_CONFIG_DIR"); dir != "" {
		return dir
	}
	return DefaultConfigDir
}

// StateDir returns the directory holding the install lock and backups
// ($MSFMCP_STATE_DIR, or /var/lib/metasploit-mcp).
func StateDir() string {
	if dir := os.Getenv("MSFMCP_STATE_DIR"); dir != "" {
		return dir
	}
	return DefaultStateDir
}

// LogDir returns the directory holding the rpcd supervisor logs
// ($MSFMCP_LOG_DIR, or /var/log/metasploit-mcp).
func LogDir() string {
	if dir := os.Getenv("MSFMCP_LOG_DIR"); dir != "" {
		return dir
	}
	return DefaultLogDir
}

// RunDir returns the directory holding pidfiles
// ($MSFMCP_RUN_DIR, or /run/metasploit-mcp).
func RunDir() string {
	if dir := os.Getenv("MSFMCP_RUN_DIR"); dir != "" {
		return dir
	}
	return DefaultRunDir
}

// BackupsDir returns the directory update and install copy replaced
// configuration files into.
func BackupsDir() string {
	return filepath.Join(StateDir(), filenames.BackupsDir)
}

// StackYAMLPath returns the path of stack.yaml.
func StackYAMLPath() string {
	return filepath.Join(ConfigDir(), filenames.StackYAML)
}

// EnsureAll creates all writable directories.
func EnsureAll() error {
	for _, dir := range []string{ConfigDir(), StateDir(), BackupsDir(), LogDir(), RunDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
