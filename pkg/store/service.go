// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

type Kind = string

const (
	// KindProcess services are owned by the rpcd supervisor and tracked
	// through pidfiles.
	KindProcess Kind = "process"
	// KindUnit services are owned by systemd.
	KindUnit Kind = "unit"
)

type Status = string

const (
	StatusUnknown  Status = ""
	StatusStopped  Status = "Stopped"
	StatusRunning  Status = "Running"
	StatusDegraded Status = "Degraded"
	StatusBroken   Status = "Broken"
)

type Service struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description,omitempty"`
	// Unit is the systemd unit name; only set for KindUnit.
	Unit string `json:"unit,omitempty"`
	// Ports the service is expected to listen on.
	Ports []int `json:"ports,omitempty"`
	// HealthURL is probed after liveness; empty means no HTTP probe.
	HealthURL string `json:"healthURL,omitempty"`
	// SupervisorPIDFile and DaemonPIDFile are only set for KindProcess.
	SupervisorPIDFile string `json:"supervisorPIDFile,omitempty"`
	DaemonPIDFile     string `json:"daemonPIDFile,omitempty"`
	// ProcessName must appear in the daemon's command line for the pidfile
	// to be trusted.
	ProcessName string `json:"-"`

	Status        Status `json:"status"`
	PID           int    `json:"pid,omitempty"`
	SupervisorPID int    `json:"supervisorPID,omitempty"`
	// Enabled reflects the systemd unit-file state; nil for KindProcess.
	Enabled *bool `json:"enabled,omitempty"`
	// Health holds the last probe result ("ok" or the probe error).
	Health string   `json:"health,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// UnitStatus is the subset of systemd unit state the registry consumes.
type UnitStatus struct {
	ActiveState   string
	SubState      string
	UnitFileState string
	MainPID       int
}

// UnitSource reports systemd unit state. It is implemented by sdunit.Conn;
// tests provide fakes.
type UnitSource interface {
	UnitStatus(ctx context.Context, unitName string) (*UnitStatus, error)
}

// Inspect fills the runtime fields of svc. Errors encountered while
// inspecting are collected into svc.Errors and reflected in svc.Status
// instead of being returned; the call only mutates svc, never the system.
func Inspect(ctx context.Context, src UnitSource, svc *Service) {
	svc.Status = StatusUnknown
	switch svc.Kind {
	case KindUnit:
		inspectUnit(ctx, src, svc)
	case KindProcess:
		inspectProcess(svc)
	default:
		svc.Status = StatusBroken
		svc.Errors = append(svc.Errors, fmt.Sprintf("unknown service kind %q", svc.Kind))
	}
}

func inspectUnit(ctx context.Context, src UnitSource, svc *Service) {
	us, err := src.UnitStatus(ctx, svc.Unit)
	if err != nil {
		svc.Status = StatusBroken
		svc.Errors = append(svc.Errors, fmt.Sprintf("failed to query unit %q: %v", svc.Unit, err))
		return
	}
	enabled := us.UnitFileState == "enabled" || us.UnitFileState == "enabled-runtime"
	svc.Enabled = &enabled
	svc.PID = us.MainPID
	switch us.ActiveState {
	case "active":
		svc.Status = StatusRunning
	case "failed":
		svc.Status = StatusBroken
		svc.Errors = append(svc.Errors, fmt.Sprintf("unit %q is in failed state (hint: `msfmcpctl logs %s`)", svc.Unit, svc.Name))
	default:
		// inactive, activating, deactivating
		svc.Status = StatusStopped
	}
}

func inspectProcess(svc *Service) {
	var err error
	svc.SupervisorPID, err = ReadPIDFile(svc.SupervisorPIDFile)
	if err != nil {
		svc.Status = StatusBroken
		svc.Errors = append(svc.Errors, err.Error())
	}
	daemonPID, err := ReadPIDFile(svc.DaemonPIDFile)
	if err != nil {
		svc.Status = StatusBroken
		svc.Errors = append(svc.Errors, err.Error())
	}
	if daemonPID > 0 && svc.ProcessName != "" {
		ok, err := processCmdlineContains(daemonPID, svc.ProcessName)
		if err != nil {
			svc.Status = StatusBroken
			svc.Errors = append(svc.Errors, fmt.Sprintf("failed to verify pid %d: %v", daemonPID, err))
			return
		}
		if !ok {
			// The pidfile points at an unrelated process; do not trust it.
			svc.Status = StatusBroken
			svc.Errors = append(svc.Errors, fmt.Sprintf("pid %d from %q does not look like %s", daemonPID, svc.DaemonPIDFile, svc.ProcessName))
			return
		}
	}
	svc.PID = daemonPID

	if svc.Status == StatusUnknown {
		switch {
		case svc.SupervisorPID > 0 && daemonPID > 0:
			svc.Status = StatusRunning
		case svc.SupervisorPID == 0 && daemonPID == 0:
			svc.Status = StatusStopped
		case svc.SupervisorPID > 0 && daemonPID == 0:
			svc.Errors = append(svc.Errors, fmt.Sprintf("supervisor is running but %s is not", svc.ProcessName))
			svc.Status = StatusBroken
		default:
			svc.Errors = append(svc.Errors, fmt.Sprintf("%s is running but its supervisor is not", svc.ProcessName))
			svc.Status = StatusBroken
		}
	}
}

// processCmdlineContains reports whether the command line of pid contains
// name. msfrpcd is usually a wrapper that execs ruby, so the executable name
// alone is not conclusive; the full command line is.
func processCmdlineContains(pid int, name string) (bool, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false, err
	}
	cmdline, err := proc.Cmdline()
	if err != nil {
		return false, err
	}
	return strings.Contains(cmdline, name), nil
}

// ReadPIDFile returns 0 if the PID file does not exist or the process has
// already terminated (in which case the PID file will be removed).
func ReadPIDFile(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	err = proc.Signal(syscall.Signal(0))
	if err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = os.Remove(path)
			return 0, nil
		}
		// We may not have permission to send the signal (e.g. to a daemon running as root).
		// But if we get a permissions error, it means the process is still running.
		if !errors.Is(err, os.ErrPermission) {
			return 0, err
		}
	}
	return pid, nil
}
