// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/rpcd"
	rpcdevents "github.com/sideffect263/metasploit-mcp/pkg/rpcd/events"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

// Stop brings down the selected services in the reverse of their start
// order. Stopping an already stopped service is not an error.
func Stop(ctx context.Context, conn *sdunit.Conn, services []*store.Service, force bool) error {
	for _, svc := range store.Reverse(services) {
		switch svc.Kind {
		case store.KindProcess:
			store.Inspect(ctx, conn, svc)
			if force {
				StopRPCDForcibly(svc)
			} else if err := StopRPCDGracefully(ctx, svc); err != nil {
				return err
			}
		case store.KindUnit:
			logrus.Infof("Stopping %s", svc.Unit)
			if err := conn.StopUnit(ctx, svc.Unit); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown service kind %q", svc.Kind)
		}
	}
	return nil
}

// StopRPCDGracefully asks the supervisor to shut msfrpcd down and waits
// for its exiting event.
func StopRPCDGracefully(ctx context.Context, svc *store.Service) error {
	switch svc.Status {
	case store.StatusStopped:
		logrus.Info("rpcd is already stopped")
		return nil
	case store.StatusRunning, store.StatusDegraded:
	default:
		return fmt.Errorf("expected status %q, got %q (maybe use `msfmcpctl stop --force`?)", store.StatusRunning, svc.Status)
	}

	begin := time.Now() // used for logrus propagation
	logrus.Infof("Sending SIGTERM to the rpcd supervisor process %d", svc.SupervisorPID)
	if err := osutil.SysKill(svc.SupervisorPID, osutil.SigTerm); err != nil {
		logrus.Error(err)
	}

	logrus.Info("Waiting for the supervisor and msfrpcd to shut down")
	return waitSupervisorTermination(ctx, begin)
}

func waitSupervisorTermination(ctx context.Context, begin time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, rpcd.GracePeriod+20*time.Second)
	defer cancel()

	var receivedExitingEvent bool
	onEvent := func(ev rpcdevents.Event) bool {
		if len(ev.Status.Errors) > 0 {
			logrus.Errorf("%+v", ev.Status.Errors)
		}
		if ev.Status.Exiting {
			receivedExitingEvent = true
			return true
		}
		return false
	}

	stdoutPath := filepath.Join(dirnames.LogDir(), filenames.SupervisorStdoutLog)
	stderrPath := filepath.Join(dirnames.LogDir(), filenames.SupervisorStderrLog)

	if err := rpcdevents.Watch(ctx, stdoutPath, stderrPath, begin, onEvent); err != nil {
		return err
	}
	if !receivedExitingEvent {
		return errors.New(`did not receive an event with the "exiting" status`)
	}
	return nil
}

// StopRPCDForcibly kills the msfrpcd and supervisor processes and removes
// stale pidfiles. Errors are logged, not returned.
func StopRPCDForcibly(svc *store.Service) {
	if svc.PID > 0 {
		logrus.Infof("Sending SIGKILL to the msfrpcd process %d", svc.PID)
		if err := osutil.SysKill(svc.PID, osutil.SigKill); err != nil {
			logrus.Error(err)
		}
	} else {
		logrus.Info("The msfrpcd process seems already stopped")
	}

	if svc.SupervisorPID > 0 {
		logrus.Infof("Sending SIGKILL to the rpcd supervisor process %d", svc.SupervisorPID)
		if err := osutil.SysKill(svc.SupervisorPID, osutil.SigKill); err != nil {
			logrus.Error(err)
		}
	} else {
		logrus.Info("The rpcd supervisor process seems already stopped")
	}

	runDir := dirnames.RunDir()
	logrus.Infof("Removing *.pid under %q", runDir)
	fi, err := os.ReadDir(runDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.Error(err)
		}
		return
	}
	for _, f := range fi {
		path := filepath.Join(runDir, f.Name())
		if strings.HasSuffix(path, ".pid") {
			logrus.Infof("Removing %q", path)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logrus.Error(err)
			}
		}
	}
}
