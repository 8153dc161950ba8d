// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	rpcdevents "github.com/sideffect263/metasploit-mcp/pkg/rpcd/events"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

func TestWaitSupervisorTermination(t *testing.T) {
	logDir := t.TempDir()
	t.Setenv("MSFMCP_LOG_DIR", logDir)
	stdoutPath := filepath.Join(logDir, filenames.SupervisorStdoutLog)
	stderrPath := filepath.Join(logDir, filenames.SupervisorStderrLog)
	assert.NilError(t, os.WriteFile(stderrPath, nil, 0o644))
	// events from the current session are replayed from the beginning of
	// the log, so the watcher must skip past the running event
	writeEvents(t, stdoutPath,
		rpcdevents.Event{Status: rpcdevents.Status{Running: true, MsfrpcdPID: 123}},
		rpcdevents.Event{Status: rpcdevents.Status{Exiting: true}},
	)
	assert.NilError(t, waitSupervisorTermination(context.Background(), time.Now()))
}

func TestStopRPCDGracefullyAlreadyStopped(t *testing.T) {
	svc := &store.Service{Name: "rpcd", Kind: store.KindProcess, Status: store.StatusStopped}
	assert.NilError(t, StopRPCDGracefully(context.Background(), svc))
}

func TestStopRPCDGracefullyBroken(t *testing.T) {
	svc := &store.Service{Name: "rpcd", Kind: store.KindProcess, Status: store.StatusBroken}
	err := StopRPCDGracefully(context.Background(), svc)
	assert.ErrorContains(t, err, "--force")
}
