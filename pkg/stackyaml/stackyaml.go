// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package stackyaml defines the stack.yaml configuration schema.
//
// All fields are pointers so that FillDefault can distinguish "unset" from
// zero values. Load fills defaults but does not validate; Validate validates
// a filled config.
package stackyaml

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

type Stack struct {
	RPC        RPC      `yaml:"rpc,omitempty" json:"rpc,omitempty"`
	MCP        MCP      `yaml:"mcp,omitempty" json:"mcp,omitempty"`
	Nginx      Nginx    `yaml:"nginx,omitempty" json:"nginx,omitempty"`
	Paths      Paths    `yaml:"paths,omitempty" json:"paths,omitempty"`
	Firewall   Firewall `yaml:"firewall,omitempty" json:"firewall,omitempty"`
	Install    Install  `yaml:"install,omitempty" json:"install,omitempty"`
	ExtraUnits []string `yaml:"extraUnits,omitempty" json:"extraUnits,omitempty"`
}

// RPC configures the supervised msfrpcd daemon.
type RPC struct {
	// Password for the RPC listener. The MSF_PASSWORD environment variable
	// takes precedence; `install` replaces the built-in default with a
	// generated one.
	Password *string `yaml:"password,omitempty" json:"password,omitempty"`
	// Address msfrpcd binds to. MSF_SERVER takes precedence.
	Address *string `yaml:"address,omitempty" json:"address,omitempty"`
	// Port msfrpcd listens on. MSF_PORT takes precedence.
	Port *int `yaml:"port,omitempty" json:"port,omitempty"`
	// SSL toggles TLS on the RPC listener; msfrpcd gets `-S` when disabled.
	// MSF_SSL takes precedence.
	SSL *bool `yaml:"ssl,omitempty" json:"ssl,omitempty"`
	// ExtraArgs are appended verbatim to the msfrpcd command line.
	ExtraArgs []string `yaml:"extraArgs,omitempty" json:"extraArgs,omitempty"`
	// ReadinessTimeout bounds the TCP readiness poll after spawning msfrpcd.
	ReadinessTimeout *string `yaml:"readinessTimeout,omitempty" json:"readinessTimeout,omitempty"`
}

// MCP configures the external Python MCP server unit.
type MCP struct {
	Port *int `yaml:"port,omitempty" json:"port,omitempty"`
	// Transport is "http" or "stdio". Health probing requires "http";
	// a "stdio" server is accepted but cannot be probed.
	Transport  *string `yaml:"transport,omitempty" json:"transport,omitempty"`
	HealthPath *string `yaml:"healthPath,omitempty" json:"healthPath,omitempty"`
	PythonBin  *string `yaml:"pythonBin,omitempty" json:"pythonBin,omitempty"`
}

// Nginx configures the site fronting the landing page and the MCP proxy.
type Nginx struct {
	ServerName   *string `yaml:"serverName,omitempty" json:"serverName,omitempty"`
	ListenPort   *int    `yaml:"listenPort,omitempty" json:"listenPort,omitempty"`
	WebRoot      *string `yaml:"webRoot,omitempty" json:"webRoot,omitempty"`
	SitePath     *string `yaml:"sitePath,omitempty" json:"sitePath,omitempty"`
	SiteLinkPath *string `yaml:"siteLinkPath,omitempty" json:"siteLinkPath,omitempty"`
}

type Paths struct {
	// AppDir holds the MCP server application.
	AppDir *string `yaml:"appDir,omitempty" json:"appDir,omitempty"`
	// EnvFile is the MSF_* environment file read by the unit and the supervisor.
	EnvFile *string `yaml:"envFile,omitempty" json:"envFile,omitempty"`
	// UnitPath is where the systemd unit for the MCP server is installed.
	UnitPath *string `yaml:"unitPath,omitempty" json:"unitPath,omitempty"`
}

type Firewall struct {
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	// AllowPorts are opened in addition to SSH, the nginx listen port, and
	// the RPC port.
	AllowPorts []int `yaml:"allowPorts,omitempty" json:"allowPorts,omitempty"`
}

type Install struct {
	AptPackages []string `yaml:"aptPackages,omitempty" json:"aptPackages,omitempty"`
	PipPackages []string `yaml:"pipPackages,omitempty" json:"pipPackages,omitempty"`
	// MsfInstallerURL is the upstream Metasploit nightly installer script.
	MsfInstallerURL *string `yaml:"msfInstallerURL,omitempty" json:"msfInstallerURL,omitempty"`
	// MsfInstallerDigest optionally pins the installer script, e.g. "sha256:...".
	MsfInstallerDigest *string `yaml:"msfInstallerDigest,omitempty" json:"msfInstallerDigest,omitempty"`
}

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// TransportTypes lists the accepted mcp.transport values.
var TransportTypes = []string{TransportHTTP, TransportStdio}

// ReadinessTimeoutDuration returns the parsed rpc.readinessTimeout.
// Call after FillDefault; an unparsable value falls back to the default
// (Validate reports it as an error).
func (s *Stack) ReadinessTimeoutDuration() time.Duration {
	if s.RPC.ReadinessTimeout != nil {
		if d, err := time.ParseDuration(*s.RPC.ReadinessTimeout); err == nil && d > 0 {
			return d
		}
	}
	return defaultReadinessTimeout
}

// RPCAddr returns the host:port of the msfrpcd listener.
func (s *Stack) RPCAddr() string {
	return net.JoinHostPort(*s.RPC.Address, strconv.Itoa(*s.RPC.Port))
}

// MCPHealthURL returns the local health probe URL for the MCP server, or ""
// when the configured transport cannot be probed.
func (s *Stack) MCPHealthURL() string {
	if *s.MCP.Transport != TransportHTTP {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d%s", *s.MCP.Port, *s.MCP.HealthPath)
}

// NginxURL returns the local URL of the nginx site.
func (s *Stack) NginxURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", *s.Nginx.ListenPort)
}
