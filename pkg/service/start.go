// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/healthcheck"
	rpcdevents "github.com/sideffect263/metasploit-mcp/pkg/rpcd/events"
	"github.com/sideffect263/metasploit-mcp/pkg/sdunit"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

// Start brings up the selected services in dependency order. It returns as
// soon as every service is running (or degraded), leaving the rpcd
// supervisor process behind.
func Start(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, services []*store.Service) error {
	for _, svc := range services {
		switch svc.Kind {
		case store.KindProcess:
			if err := startRPCD(ctx, cfg, svc); err != nil {
				return err
			}
		case store.KindUnit:
			if err := startUnit(ctx, conn, cfg, svc); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown service kind %q", svc.Kind)
		}
	}
	return nil
}

func startUnit(ctx context.Context, conn *sdunit.Conn, cfg *stackyaml.Stack, svc *store.Service) error {
	logrus.Infof("Starting %s", svc.Unit)
	if err := conn.StartUnit(ctx, svc.Unit); err != nil {
		return err
	}
	if svc.HealthURL == "" {
		return nil
	}
	logrus.Infof("Waiting for %s to become healthy", svc.Name)
	if err := healthcheck.WaitReady(ctx, svc.HealthURL, cfg.ReadinessTimeoutDuration(), healthcheck.DefaultInterval); err != nil {
		return fmt.Errorf("%s is started but unhealthy (hint: run `msfmcpctl logs %s`): %w", svc.Name, svc.Name, err)
	}
	return nil
}

func startRPCD(ctx context.Context, cfg *stackyaml.Stack, svc *store.Service) error {
	pid, err := store.ReadPIDFile(svc.SupervisorPIDFile)
	if err != nil {
		return err
	}
	if pid > 0 {
		return fmt.Errorf("rpcd seems running with pid %d (hint: remove %q if it is not actually running)", pid, svc.SupervisorPIDFile)
	}

	stdoutPath := filepath.Join(dirnames.LogDir(), filenames.SupervisorStdoutLog)
	stderrPath := filepath.Join(dirnames.LogDir(), filenames.SupervisorStderrLog)
	if err := os.RemoveAll(stdoutPath); err != nil {
		return err
	}
	if err := os.RemoveAll(stderrPath); err != nil {
		return err
	}

	// stdoutW and stderrW are closed here, not in the cmd.Wait goroutine
	stdoutW, err := os.Create(stdoutPath)
	if err != nil {
		return err
	}
	defer stdoutW.Close()
	stderrW, err := os.Create(stderrPath)
	if err != nil {
		return err
	}
	defer stderrW.Close()

	self, err := os.Executable()
	if err != nil {
		return err
	}
	// the stderr log must be JSON so that it can be replayed with the
	// original levels and timestamps
	args := []string{"--log-format", "json"}
	if logrus.GetLevel() >= logrus.DebugLevel {
		args = append(args, "--debug")
	}
	args = append(args, "rpcd", "run", "--pidfile", svc.SupervisorPIDFile)
	cmd := exec.CommandContext(ctx, self, args...)
	cmd.SysProcAttr = executil.BackgroundSysProcAttr
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	begin := time.Now() // used for logrus propagation

	logrus.Info("Starting the rpcd supervisor")
	if err := cmd.Start(); err != nil {
		return err
	}
	if err := waitSupervisorStart(ctx, svc.SupervisorPIDFile, stderrPath); err != nil {
		return err
	}

	watchErrCh := make(chan error)
	go func() {
		watchErrCh <- watchSupervisorEvents(ctx, cfg, stdoutPath, stderrPath, begin)
		close(watchErrCh)
	}()
	waitErrCh := make(chan error)
	go func() {
		waitErrCh <- cmd.Wait()
		close(waitErrCh)
	}()

	select {
	case watchErr := <-watchErrCh:
		// watchErr can be nil
		return watchErr
		// leave the supervisor process running
	case waitErr := <-waitErrCh:
		// waitErr should not be nil
		return fmt.Errorf("rpcd supervisor process has exited: %w", waitErr)
	}
}

func waitSupervisorStart(_ context.Context, pidFilePath, stderrPath string) error {
	begin := time.Now()
	deadlineDuration := 5 * time.Second
	deadline := begin.Add(deadlineDuration)
	for {
		if _, err := os.Stat(pidFilePath); !errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("rpcd supervisor (%q) did not start up in %v (hint: see %q)", pidFilePath, deadlineDuration, stderrPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func watchSupervisorEvents(ctx context.Context, cfg *stackyaml.Stack, stdoutPath, stderrPath string, begin time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, watchEventsTimeout(ctx))
	defer cancel()

	var (
		receivedRunningEvent bool
		err                  error
	)
	onEvent := func(ev rpcdevents.Event) bool {
		if len(ev.Status.Errors) > 0 {
			logrus.Errorf("%+v", ev.Status.Errors)
		}
		if ev.Status.Exiting {
			err = fmt.Errorf("exiting, status=%+v (hint: see %q)", ev.Status, stderrPath)
			return true
		} else if ev.Status.Running {
			receivedRunningEvent = true
			if ev.Status.Degraded {
				logrus.Warnf("DEGRADED. msfrpcd is running (pid %d), but does not accept connections on %s yet. (hint: see %q)", ev.Status.MsfrpcdPID, cfg.RPCAddr(), stderrPath)
				err = fmt.Errorf("degraded, status=%+v", ev.Status)
				return true
			}
			logrus.Infof("msfrpcd is accepting RPC connections on %s (pid %d)", cfg.RPCAddr(), ev.Status.MsfrpcdPID)
			return true
		}
		return false
	}

	if xerr := rpcdevents.Watch(ctx, stdoutPath, stderrPath, begin, onEvent); xerr != nil {
		return xerr
	}
	if err != nil {
		return err
	}
	if !receivedRunningEvent {
		return errors.New(`did not receive an event with the "running" status`)
	}
	return nil
}
