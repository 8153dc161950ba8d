// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package service starts, stops, and restarts the stack services in
// dependency order. Systemd-owned services are driven over D-Bus; the
// rpcd supervisor is driven through signals and its event stream.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

// DefaultWatchEventsTimeout is the duration to wait for msfrpcd to be
// running before timing out.
const DefaultWatchEventsTimeout = 2 * time.Minute

type watchEventsTimeoutKey = struct{}

// WithWatchEventsTimeout sets the value of the timeout to use for
// watchSupervisorEvents in the given Context.
func WithWatchEventsTimeout(ctx context.Context, timeout time.Duration) context.Context {
	return context.WithValue(ctx, watchEventsTimeoutKey{}, timeout)
}

// watchEventsTimeout returns the value of the timeout to use for
// watchSupervisorEvents contained in the given Context, or its default value.
func watchEventsTimeout(ctx context.Context) time.Duration {
	if timeout, ok := ctx.Value(watchEventsTimeoutKey{}).(time.Duration); ok {
		return timeout
	}
	return DefaultWatchEventsTimeout
}

// Restart stops the selected services and starts them again.
func Restart(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, services []*store.Service) error {
	if err := Stop(ctx, conn, services, false); err != nil {
		return err
	}
	if err := store.InspectAll(ctx, conn, services); err != nil {
		return err
	}
	for _, svc := range services {
		if svc.Status == store.StatusRunning {
			return fmt.Errorf("%s is still running after stop", svc.Name)
		}
	}
	return Start(ctx, conn, cfg, services)
}

// RestartForcibly kills the selected services and starts them again.
func RestartForcibly(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, services []*store.Service) error {
	if err := Stop(ctx, conn, services, true); err != nil {
		return err
	}
	return Start(ctx, conn, cfg, services)
}
