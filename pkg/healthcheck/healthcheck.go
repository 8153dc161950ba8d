// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package healthcheck probes the HTTP health endpoints of the stack.
package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sideffect263/metasploit-mcp/pkg/httpclientutil"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

const (
	// probeTimeout bounds a single probe; WaitReady bounds the whole loop
	// separately.
	probeTimeout = 3 * time.Second

	DefaultInterval = time.Second
)

var client = &http.Client{}

// Probe performs a single GET against url. A non-2XX answer is an error.
func Probe(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := httpclientutil.Get(ctx, client, url)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// WaitReady polls url every interval until it answers 2XX or timeout
// elapses.
func WaitReady(ctx context.Context, url string, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		lastErr := Probe(ctx, url)
		if lastErr == nil {
			return nil
		}
		logrus.WithError(lastErr).Debugf("%q is not answering yet", url)
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %q to become healthy: %w", url, lastErr)
		case <-ticker.C:
		}
	}
}

// ProbeServices fills Health for every running service that exposes a
// health URL. A running service failing its probe is downgraded to
// Degraded; stopped services are left alone.
func ProbeServices(ctx context.Context, services []*store.Service) {
	var eg errgroup.Group
	for _, svc := range services {
		if svc.HealthURL == "" || svc.Status != store.StatusRunning {
			continue
		}
		eg.Go(func() error {
			if err := Probe(ctx, svc.HealthURL); err != nil {
				svc.Health = err.Error()
				svc.Status = store.StatusDegraded
				svc.Errors = append(svc.Errors, fmt.Sprintf("health probe of %q failed: %v", svc.HealthURL, err))
			} else {
				svc.Health = "ok"
			}
			return nil
		})
	}
	_ = eg.Wait()
}
