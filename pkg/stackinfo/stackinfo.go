// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package stackinfo assembles the diagnostic payload behind
// `msfmcpctl info`.
package stackinfo

import (
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/ptr"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/sysinfo"
	"github.com/sideffect263/metasploit-mcp/pkg/version"
)

type Info struct {
	Version    string `json:"version"`
	ConfigPath string `json:"configPath"`
	// Installed reports whether stack.yaml exists; when false, Stack
	// holds the builtin defaults.
	Installed bool             `json:"installed"`
	Stack     *stackyaml.Stack `json:"stack"`
	Dirs      Dirs             `json:"dirs"`
	System    *sysinfo.Info    `json:"system"`
}

type Dirs struct {
	Config string `json:"config"`
	State  string `json:"state"`
	Log    string `json:"log"`
	Run    string `json:"run"`
}

// New collects version, configuration, and host information. The RPC
// password is redacted.
func New() (*Info, error) {
	path := dirnames.StackYAMLPath()
	installed := osutil.FileExists(path)
	cfg, err := stackyaml.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	system := sysinfo.Collect()
	system.Ports = sysinfo.ProbePorts(store.Services(cfg))
	return &Info{
		Version:    version.Version,
		ConfigPath: path,
		Installed:  installed,
		Stack:      redacted(cfg),
		Dirs: Dirs{
			Config: dirnames.ConfigDir(),
			State:  dirnames.StateDir(),
			Log:    dirnames.LogDir(),
			Run:    dirnames.RunDir(),
		},
		System: system,
	}, nil
}

// redacted returns a copy of cfg with the RPC password masked. The copy
// shares every other leaf with cfg.
func redacted(cfg *stackyaml.Stack) *stackyaml.Stack {
	cp := *cfg
	if cp.RPC.Password != nil {
		cp.RPC.Password = ptr.Of("********")
	}
	return &cp
}
