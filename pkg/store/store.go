// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package store builds the registry of stack services and inspects their
// runtime state. Inspection is read-only; lifecycle changes live in
// pkg/service.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

const (
	ServiceRPCD  = "rpcd"
	ServiceMCP   = "mcp"
	ServiceNginx = "nginx"

	MCPUnit   = "metasploit-mcp.service"
	NginxUnit = "nginx.service"
)

// Services returns all services of the stack in dependency (start) order:
// extra units first (e.g. the database behind msfdb), then rpcd, then the
// MCP server, then nginx. Stop order is the reverse.
func Services(cfg *stackyaml.Stack) []*Service {
	runDir := dirnames.RunDir()
	var services []*Service
	for _, unit := range cfg.ExtraUnits {
		unitName := unit
		if !strings.Contains(unitName, ".") {
			unitName += ".service"
		}
		services = append(services, &Service{
			Name:        strings.TrimSuffix(unitName, ".service"),
			Kind:        KindUnit,
			Unit:        unitName,
			Description: "extra unit from stack.yaml",
		})
	}
	services = append(services,
		&Service{
			Name:              ServiceRPCD,
			Kind:              KindProcess,
			Description:       "Metasploit RPC daemon (msfrpcd)",
			Ports:             []int{*cfg.RPC.Port},
			SupervisorPIDFile: filepath.Join(runDir, filenames.SupervisorPID),
			DaemonPIDFile:     filepath.Join(runDir, filenames.MsfrpcdPID),
			ProcessName:       "msfrpcd",
		},
		&Service{
			Name:        ServiceMCP,
			Kind:        KindUnit,
			Unit:        MCPUnit,
			Description: "Metasploit MCP server",
			Ports:       mcpPorts(cfg),
			HealthURL:   cfg.MCPHealthURL(),
		},
		&Service{
			Name:        ServiceNginx,
			Kind:        KindUnit,
			Unit:        NginxUnit,
			Description: "nginx reverse proxy",
			Ports:       []int{*cfg.Nginx.ListenPort},
			HealthURL:   cfg.NginxURL(),
		},
	)
	return services
}

func mcpPorts(cfg *stackyaml.Stack) []int {
	if *cfg.MCP.Transport != stackyaml.TransportHTTP {
		// A stdio server binds nothing.
		return nil
	}
	return []int{*cfg.MCP.Port}
}

// Lookup returns the named service.
func Lookup(services []*Service, name string) (*Service, error) {
	for _, svc := range services {
		if svc.Name == name {
			return svc, nil
		}
	}
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.Name)
	}
	return nil, fmt.Errorf("unknown service %q (known services: %s)", name, strings.Join(names, ", "))
}

// Select resolves names against the registry, preserving dependency order.
// An empty names slice selects every service.
func Select(services []*Service, names []string) ([]*Service, error) {
	if len(names) == 0 {
		return services, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := Lookup(services, name); err != nil {
			return nil, err
		}
		want[name] = true
	}
	var selected []*Service
	for _, svc := range services {
		if want[svc.Name] {
			selected = append(selected, svc)
		}
	}
	return selected, nil
}

// Reverse returns the services in reverse (stop) order.
func Reverse(services []*Service) []*Service {
	reversed := make([]*Service, len(services))
	for i, svc := range services {
		reversed[len(services)-1-i] = svc
	}
	return reversed
}

// InspectAll inspects every service concurrently.
func InspectAll(ctx context.Context, src UnitSource, services []*Service) error {
	var eg errgroup.Group
	for _, svc := range services {
		eg.Go(func() error {
			Inspect(ctx, src, svc)
			return nil
		})
	}
	return eg.Wait()
}
