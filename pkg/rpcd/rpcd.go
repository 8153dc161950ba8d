// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpcd supervises the msfrpcd daemon.
//
// The supervisor is spawned in the background by `start` (as the hidden
// `rpcd run` subcommand), keeps msfrpcd as its child, and reports state
// changes as a JSON event stream on stdout. Logs go to stderr.
package rpcd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/rpcd/events"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

// GracePeriod is how long shutdown waits between SIGTERM and SIGKILL.
const GracePeriod = 10 * time.Second

type Supervisor struct {
	cfg           *stackyaml.Stack
	eventEnc      *json.Encoder
	eventEncMu    sync.Mutex
	signalCh      chan os.Signal
	daemonPIDFile string
}

// New creates a supervisor writing its event stream to stdout. signalCh
// delivers the signals that trigger a graceful shutdown.
func New(cfg *stackyaml.Stack, stdout io.Writer, signalCh chan os.Signal) *Supervisor {
	return &Supervisor{
		cfg:           cfg,
		eventEnc:      json.NewEncoder(stdout),
		signalCh:      signalCh,
		daemonPIDFile: filepath.Join(dirnames.RunDir(), filenames.MsfrpcdPID),
	}
}

// BuildArgs returns the msfrpcd command line for the config. msfrpcd
// enables TLS by default and `-S` disables it, hence the inverted flag.
func BuildArgs(cfg *stackyaml.Stack) ([]string, error) {
	args := []string{
		"-f",
		"-a", *cfg.RPC.Address,
		"-p", strconv.Itoa(*cfg.RPC.Port),
		"-P", *cfg.RPC.Password,
	}
	if !*cfg.RPC.SSL {
		args = append(args, "-S")
	}
	for _, extra := range cfg.RPC.ExtraArgs {
		tokens, err := shellwords.Parse(extra)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rpc.extraArgs entry %q: %w", extra, err)
		}
		args = append(args, tokens...)
	}
	return args, nil
}

// redactArgs masks the password argument so command lines can be logged.
func redactArgs(args []string) []string {
	redacted := make([]string, len(args))
	copy(redacted, args)
	for i := 0; i < len(redacted)-1; i++ {
		if redacted[i] == "-P" {
			redacted[i+1] = "********"
		}
	}
	return redacted
}

func (s *Supervisor) emitEvent(ev events.Event) {
	s.eventEncMu.Lock()
	defer s.eventEncMu.Unlock()
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if err := s.eventEnc.Encode(ev); err != nil {
		logrus.WithField("event", ev).WithError(err).Error("failed to emit an event")
	}
}

// Run spawns msfrpcd and blocks until it exits or a shutdown signal
// arrives. The final event always has Exiting set.
func (s *Supervisor) Run(ctx context.Context) error {
	var exitingErrs []string
	defer func() {
		s.emitEvent(events.Event{
			Status: events.Status{
				Exiting: true,
				Errors:  exitingErrs,
			},
		})
	}()
	fail := func(err error) error {
		exitingErrs = append(exitingErrs, err.Error())
		return err
	}

	if pid, err := store.ReadPIDFile(s.daemonPIDFile); err != nil {
		return fail(err)
	} else if pid > 0 {
		return fail(fmt.Errorf("msfrpcd seems already running with pid %d (hint: run `msfmcpctl stop rpcd`, or remove %q if it is not actually running)", pid, s.daemonPIDFile))
	}

	msfrpcdBin, err := exec.LookPath("msfrpcd")
	if err != nil {
		return fail(fmt.Errorf("msfrpcd is not installed (hint: run `msfmcpctl install`): %w", err))
	}
	args, err := BuildArgs(s.cfg)
	if err != nil {
		return fail(err)
	}

	cmd := exec.Command(msfrpcdBin, args...)
	// own process group, so that a signal to the supervisor does not reach
	// msfrpcd before the graceful shutdown does
	cmd.SysProcAttr = executil.BackgroundSysProcAttr
	// stdout carries the event stream, so the daemon output goes to stderr
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	logrus.Infof("Starting %s", shellescape.QuoteCommand(append([]string{msfrpcdBin}, redactArgs(args)...)))
	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("failed to start msfrpcd: %w", err))
	}
	pid := cmd.Process.Pid
	if err := os.WriteFile(s.daemonPIDFile, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		_ = cmd.Process.Kill()
		return fail(err)
	}
	defer os.RemoveAll(s.daemonPIDFile)

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	readyCh := make(chan error, 1)
	go func() {
		rctx, cancel := context.WithTimeout(ctx, s.cfg.ReadinessTimeoutDuration())
		defer cancel()
		readyCh <- osutil.WaitTCPPort(rctx, *s.cfg.RPC.Address, *s.cfg.RPC.Port, 500*time.Millisecond)
	}()

	for {
		select {
		case err := <-readyCh:
			readyCh = nil
			st := events.Status{Running: true, MsfrpcdPID: pid, Port: *s.cfg.RPC.Port}
			if err != nil {
				st.Degraded = true
				st.Errors = append(st.Errors, err.Error())
				logrus.WithError(err).Warn("msfrpcd is running but not accepting connections")
			} else {
				logrus.Infof("msfrpcd is accepting connections on %s", s.cfg.RPCAddr())
			}
			s.emitEvent(events.Event{Status: st})
		case sig := <-s.signalCh:
			logrus.Infof("Received %s, shutting down msfrpcd (pid %d)", osutil.SignalName(sig), pid)
			if err := s.shutdown(pid, waitCh); err != nil {
				return fail(err)
			}
			return nil
		case <-ctx.Done():
			if err := s.shutdown(pid, waitCh); err != nil {
				return fail(err)
			}
			return fail(ctx.Err())
		case werr := <-waitCh:
			err := errors.New("msfrpcd exited unexpectedly")
			if werr != nil {
				err = fmt.Errorf("msfrpcd exited unexpectedly: %w", werr)
			}
			return fail(err)
		}
	}
}

// shutdown asks msfrpcd to terminate and escalates to SIGKILL after the
// grace period.
func (s *Supervisor) shutdown(pid int, waitCh <-chan error) error {
	if err := osutil.SysKill(pid, osutil.SigTerm); err != nil {
		return fmt.Errorf("failed to send SIGTERM to msfrpcd (pid %d): %w", pid, err)
	}
	select {
	case <-waitCh:
		logrus.Info("msfrpcd exited")
		return nil
	case <-time.After(GracePeriod):
		logrus.Warnf("msfrpcd did not exit in %v, sending SIGKILL", GracePeriod)
		if err := osutil.SysKill(pid, osutil.SigKill); err != nil {
			return fmt.Errorf("failed to send SIGKILL to msfrpcd (pid %d): %w", pid, err)
		}
		<-waitCh
		return nil
	}
}
