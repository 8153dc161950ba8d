// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package sdunit renders the MCP server systemd unit and controls units
// over the systemd D-Bus API.
package sdunit

import (
	_ "embed"

	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/textutil"
)

//go:embed metasploit-mcp.service
var Template string

// RenderUnit renders the MCP server unit file for the given config.
func RenderUnit(cfg *stackyaml.Stack) ([]byte, error) {
	return textutil.ExecuteTemplate(Template, map[string]any{
		"EnvFile":   *cfg.Paths.EnvFile,
		"AppDir":    *cfg.Paths.AppDir,
		"Script":    stackyaml.ServerScript,
		"PythonBin": *cfg.MCP.PythonBin,
		"Transport": *cfg.MCP.Transport,
		"HTTP":      *cfg.MCP.Transport == stackyaml.TransportHTTP,
		"Port":      *cfg.MCP.Port,
	})
}

// WriteUnit renders the unit file and installs it at paths.unitPath.
// The caller still has to daemon-reload before the change is visible.
func WriteUnit(cfg *stackyaml.Stack) error {
	b, err := RenderUnit(cfg)
	if err != nil {
		return err
	}
	return osutil.WriteFileAtomically(*cfg.Paths.UnitPath, b, 0o644)
}
