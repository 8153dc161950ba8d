// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package stackyaml

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/ptr"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

const (
	// DefaultRPCPassword is the documented fallback shared by the CLI, the
	// env file, and the MCP server. `install` replaces it with a generated
	// password.
	DefaultRPCPassword = "msf"

	DefaultRPCAddress = "127.0.0.1"
	DefaultRPCPort    = 55553
	DefaultMCPPort    = 8085

	DefaultNginxListenPort = 80
	DefaultNginxServerName = "_"
	DefaultWebRoot         = "/var/www/metasploit-mcp"
	DefaultSitePath        = "/etc/nginx/sites-available/metasploit-mcp"
	DefaultSiteLinkPath    = "/etc/nginx/sites-enabled/metasploit-mcp"

	DefaultAppDir   = "/opt/metasploit-mcp"
	DefaultUnitPath = "/etc/systemd/system/metasploit-mcp.service"

	// DefaultMsfInstallerURL is Rapid7's nightly installer wrapper script.
	DefaultMsfInstallerURL = "https://raw.githubusercontent.com/rapid7/metasploit-omnibus/master/config/templates/metasploit-framework-wrappers/msfupdate.erb"

	// ServerScript is the entry point of the MCP server app under
	// paths.appDir. The app itself is developed and versioned separately;
	// `install` only deploys it.
	ServerScript = "metasploit_mcp_server.py"

	defaultReadinessTimeout = 30 * time.Second
)

// DefaultAptPackages returns the OS packages the installer ensures.
func DefaultAptPackages() []string {
	return []string{"nginx", "python3", "python3-pip", "curl", "gnupg2"}
}

// DefaultPipPackages returns the Python packages the MCP server imports.
func DefaultPipPackages() []string {
	return []string{"mcp", "pymetasploit3"}
}

// FillDefault fills unset fields.
//
// Values resolve as process environment (MSF_PASSWORD, MSF_SERVER, MSF_PORT,
// MSF_SSL) > stack.yaml > built-in default, matching the contract the MCP
// server itself applies to its environment.
func FillDefault(y *Stack) {
	if env := os.Getenv("MSF_PASSWORD"); env != "" {
		y.RPC.Password = ptr.Of(env)
	}
	if env := os.Getenv("MSF_SERVER"); env != "" {
		y.RPC.Address = ptr.Of(env)
	}
	if env := os.Getenv("MSF_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			y.RPC.Port = ptr.Of(port)
		} else {
			logrus.WithError(err).Warnf("ignoring unparsable MSF_PORT=%q", env)
		}
	}
	if env := os.Getenv("MSF_SSL"); env != "" {
		y.RPC.SSL = ptr.Of(strings.EqualFold(env, "true"))
	}

	if y.RPC.Password == nil {
		y.RPC.Password = ptr.Of(DefaultRPCPassword)
	}
	if y.RPC.Address == nil {
		y.RPC.Address = ptr.Of(DefaultRPCAddress)
	}
	if y.RPC.Port == nil {
		y.RPC.Port = ptr.Of(DefaultRPCPort)
	}
	if y.RPC.SSL == nil {
		y.RPC.SSL = ptr.Of(false)
	}
	if y.RPC.ReadinessTimeout == nil {
		y.RPC.ReadinessTimeout = ptr.Of(defaultReadinessTimeout.String())
	}

	if y.MCP.Port == nil {
		y.MCP.Port = ptr.Of(DefaultMCPPort)
	}
	if y.MCP.Transport == nil {
		y.MCP.Transport = ptr.Of(TransportHTTP)
	}
	if y.MCP.HealthPath == nil {
		y.MCP.HealthPath = ptr.Of("/healthz")
	}
	if y.MCP.PythonBin == nil {
		y.MCP.PythonBin = ptr.Of("python3")
	}

	if y.Nginx.ServerName == nil {
		y.Nginx.ServerName = ptr.Of(DefaultNginxServerName)
	}
	if y.Nginx.ListenPort == nil {
		y.Nginx.ListenPort = ptr.Of(DefaultNginxListenPort)
	}
	if y.Nginx.WebRoot == nil {
		y.Nginx.WebRoot = ptr.Of(DefaultWebRoot)
	}
	if y.Nginx.SitePath == nil {
		y.Nginx.SitePath = ptr.Of(DefaultSitePath)
	}
	if y.Nginx.SiteLinkPath == nil {
		y.Nginx.SiteLinkPath = ptr.Of(DefaultSiteLinkPath)
	}

	if y.Paths.AppDir == nil {
		y.Paths.AppDir = ptr.Of(DefaultAppDir)
	}
	if y.Paths.EnvFile == nil {
		y.Paths.EnvFile = ptr.Of(filepath.Join(dirnames.ConfigDir(), filenames.EnvFile))
	}
	if y.Paths.UnitPath == nil {
		y.Paths.UnitPath = ptr.Of(DefaultUnitPath)
	}

	if y.Firewall.Enabled == nil {
		y.Firewall.Enabled = ptr.Of(true)
	}

	if y.Install.AptPackages == nil {
		y.Install.AptPackages = DefaultAptPackages()
	}
	if y.Install.PipPackages == nil {
		y.Install.PipPackages = DefaultPipPackages()
	}
	if y.Install.MsfInstallerURL == nil {
		y.Install.MsfInstallerURL = ptr.Of(DefaultMsfInstallerURL)
	}
	if y.Install.MsfInstallerDigest == nil {
		y.Install.MsfInstallerDigest = ptr.Of("")
	}
}
