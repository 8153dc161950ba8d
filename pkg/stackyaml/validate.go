// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package stackyaml

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/sideffect263/metasploit-mcp/pkg/identifiers"
)

// Validate validates a filled config.
func Validate(y *Stack) error {
	if *y.RPC.Password == "" {
		return fmt.Errorf("field `rpc.password` must not be empty")
	}
	if *y.RPC.Address != "" {
		if ip := net.ParseIP(*y.RPC.Address); ip == nil {
			// Not an IP literal; msfrpcd only binds addresses, so hostnames
			// are rejected early instead of failing at spawn time.
			return fmt.Errorf("field `rpc.address` must be an IP address, got %q", *y.RPC.Address)
		}
	}
	if err := validatePort("rpc.port", *y.RPC.Port); err != nil {
		return err
	}
	if _, err := time.ParseDuration(*y.RPC.ReadinessTimeout); err != nil {
		return fmt.Errorf("field `rpc.readinessTimeout` has an invalid value: %w", err)
	}

	if err := validatePort("mcp.port", *y.MCP.Port); err != nil {
		return err
	}
	switch *y.MCP.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("field `mcp.transport` must be %q or %q, got %q", TransportHTTP, TransportStdio, *y.MCP.Transport)
	}
	if !strings.HasPrefix(*y.MCP.HealthPath, "/") {
		return fmt.Errorf("field `mcp.healthPath` must start with %q, got %q", "/", *y.MCP.HealthPath)
	}

	if err := validatePort("nginx.listenPort", *y.Nginx.ListenPort); err != nil {
		return err
	}
	for field, path := range map[string]string{
		"nginx.webRoot":      *y.Nginx.WebRoot,
		"nginx.sitePath":     *y.Nginx.SitePath,
		"nginx.siteLinkPath": *y.Nginx.SiteLinkPath,
		"paths.appDir":       *y.Paths.AppDir,
		"paths.envFile":      *y.Paths.EnvFile,
		"paths.unitPath":     *y.Paths.UnitPath,
	} {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("field `%s` must be an absolute path, got %q", field, path)
		}
	}

	for i, port := range y.Firewall.AllowPorts {
		if err := validatePort(fmt.Sprintf("firewall.allowPorts[%d]", i), port); err != nil {
			return err
		}
	}

	if *y.Install.MsfInstallerDigest != "" {
		d, err := digest.Parse(*y.Install.MsfInstallerDigest)
		if err != nil {
			return fmt.Errorf("field `install.msfInstallerDigest` is invalid: %w", err)
		}
		if !d.Algorithm().Available() {
			return fmt.Errorf("field `install.msfInstallerDigest` refers to an unavailable digest algorithm")
		}
	}

	for i, unit := range y.ExtraUnits {
		name := strings.TrimSuffix(unit, ".service")
		if err := identifiers.Validate(name); err != nil {
			return fmt.Errorf("field `extraUnits[%d]` is not a valid unit name: %w", i, err)
		}
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("field `%s` must be in the range [1, 65535], got %d", field, port)
	}
	return nil
}
