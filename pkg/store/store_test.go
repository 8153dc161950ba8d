// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
)

func loadTestConfig(t *testing.T, yaml string) *stackyaml.Stack {
	t.Helper()
	for _, k := range []string{"MSF_PASSWORD", "MSF_SERVER", "MSF_PORT", "MSF_SSL"} {
		t.Setenv(k, "")
	}
	cfg, err := stackyaml.Load([]byte(yaml))
	assert.NilError(t, err)
	return cfg
}

func TestServices(t *testing.T) {
	cfg := loadTestConfig(t, "")
	services := Services(cfg)
	assert.Equal(t, len(services), 3)
	assert.Equal(t, services[0].Name, ServiceRPCD)
	assert.Equal(t, services[1].Name, ServiceMCP)
	assert.Equal(t, services[2].Name, ServiceNginx)
	assert.Equal(t, services[1].Unit, MCPUnit)
	assert.Equal(t, services[1].HealthURL, "http://127.0.0.1:8085/healthz")
	assert.Equal(t, services[0].ProcessName, "msfrpcd")
}

func TestServicesExtraUnits(t *testing.T) {
	cfg := loadTestConfig(t, "extraUnits:\n- postgresql\n")
	services := Services(cfg)
	assert.Equal(t, len(services), 4)
	// extra units start before rpcd
	assert.Equal(t, services[0].Name, "postgresql")
	assert.Equal(t, services[0].Unit, "postgresql.service")
	assert.Equal(t, services[0].Kind, KindUnit)
}

func TestServicesStdioHasNoMCPPorts(t *testing.T) {
	cfg := loadTestConfig(t, "mcp:\n  transport: stdio\n")
	services := Services(cfg)
	mcp, err := Lookup(services, ServiceMCP)
	assert.NilError(t, err)
	assert.Equal(t, len(mcp.Ports), 0)
	assert.Equal(t, mcp.HealthURL, "")
}

func TestSelect(t *testing.T) {
	cfg := loadTestConfig(t, "")
	services := Services(cfg)

	all, err := Select(services, nil)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 3)

	// selection keeps dependency order regardless of argument order
	picked, err := Select(services, []string{ServiceNginx, ServiceRPCD})
	assert.NilError(t, err)
	assert.Equal(t, len(picked), 2)
	assert.Equal(t, picked[0].Name, ServiceRPCD)
	assert.Equal(t, picked[1].Name, ServiceNginx)

	_, err = Select(services, []string{"bogus"})
	assert.ErrorContains(t, err, `unknown service "bogus"`)
}

func TestReverse(t *testing.T) {
	cfg := loadTestConfig(t, "")
	services := Reverse(Services(cfg))
	assert.Equal(t, services[0].Name, ServiceNginx)
	assert.Equal(t, services[2].Name, ServiceRPCD)
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		pid, err := ReadPIDFile(filepath.Join(dir, "nonexistent.pid"))
		assert.NilError(t, err)
		assert.Equal(t, pid, 0)
	})

	t.Run("live process", func(t *testing.T) {
		path := filepath.Join(dir, "live.pid")
		assert.NilError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644))
		pid, err := ReadPIDFile(path)
		assert.NilError(t, err)
		assert.Equal(t, pid, os.Getpid())
	})

	t.Run("stale file is removed", func(t *testing.T) {
		cmd := exec.Command("true")
		assert.NilError(t, cmd.Start())
		exitedPID := cmd.Process.Pid
		assert.NilError(t, cmd.Wait())

		path := filepath.Join(dir, "stale.pid")
		assert.NilError(t, os.WriteFile(path, []byte(strconv.Itoa(exitedPID)), 0o644))
		pid, err := ReadPIDFile(path)
		assert.NilError(t, err)
		assert.Equal(t, pid, 0)
		_, err = os.Stat(path)
		assert.Assert(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("garbage content", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.pid")
		assert.NilError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))
		_, err := ReadPIDFile(path)
		assert.Assert(t, err != nil)
	})
}

type fakeUnitSource struct {
	statuses map[string]*UnitStatus
	err      error
}

func (f *fakeUnitSource) UnitStatus(_ context.Context, unitName string) (*UnitStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	if us, ok := f.statuses[unitName]; ok {
		return us, nil
	}
	return &UnitStatus{ActiveState: "inactive"}, nil
}

func TestInspectUnit(t *testing.T) {
	tests := []struct {
		name       string
		status     *UnitStatus
		srcErr     error
		wantStatus Status
	}{
		{name: "active", status: &UnitStatus{ActiveState: "active", UnitFileState: "enabled", MainPID: 42}, wantStatus: StatusRunning},
		{name: "inactive", status: &UnitStatus{ActiveState: "inactive"}, wantStatus: StatusStopped},
		{name: "failed", status: &UnitStatus{ActiveState: "failed"}, wantStatus: StatusBroken},
		{name: "query error", srcErr: errors.New("no bus"), wantStatus: StatusBroken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeUnitSource{err: tt.srcErr}
			if tt.status != nil {
				src.statuses = map[string]*UnitStatus{NginxUnit: tt.status}
			}
			svc := &Service{Name: ServiceNginx, Kind: KindUnit, Unit: NginxUnit}
			Inspect(context.Background(), src, svc)
			assert.Equal(t, svc.Status, tt.wantStatus)
			if tt.wantStatus == StatusRunning {
				assert.Equal(t, svc.PID, 42)
				assert.Assert(t, svc.Enabled != nil && *svc.Enabled)
			}
		})
	}
}

func TestInspectProcess(t *testing.T) {
	// The test binary's own command line stands in for msfrpcd.
	self := filepath.Base(os.Args[0])
	selfPID := []byte(strconv.Itoa(os.Getpid()))

	t.Run("running", func(t *testing.T) {
		dir := t.TempDir()
		supPID := filepath.Join(dir, "rpcd.pid")
		daemonPID := filepath.Join(dir, "msfrpcd.pid")
		assert.NilError(t, os.WriteFile(supPID, selfPID, 0o644))
		assert.NilError(t, os.WriteFile(daemonPID, selfPID, 0o644))

		svc := &Service{
			Name: ServiceRPCD, Kind: KindProcess,
			SupervisorPIDFile: supPID, DaemonPIDFile: daemonPID,
			ProcessName: self,
		}
		Inspect(context.Background(), nil, svc)
		assert.Equal(t, svc.Status, StatusRunning)
		assert.Equal(t, svc.PID, os.Getpid())
	})

	t.Run("stopped", func(t *testing.T) {
		dir := t.TempDir()
		svc := &Service{
			Name: ServiceRPCD, Kind: KindProcess,
			SupervisorPIDFile: filepath.Join(dir, "rpcd.pid"),
			DaemonPIDFile:     filepath.Join(dir, "msfrpcd.pid"),
			ProcessName:       "msfrpcd",
		}
		Inspect(context.Background(), nil, svc)
		assert.Equal(t, svc.Status, StatusStopped)
	})

	t.Run("pidfile points at unrelated process", func(t *testing.T) {
		dir := t.TempDir()
		supPID := filepath.Join(dir, "rpcd.pid")
		daemonPID := filepath.Join(dir, "msfrpcd.pid")
		assert.NilError(t, os.WriteFile(supPID, selfPID, 0o644))
		assert.NilError(t, os.WriteFile(daemonPID, selfPID, 0o644))

		svc := &Service{
			Name: ServiceRPCD, Kind: KindProcess,
			SupervisorPIDFile: supPID, DaemonPIDFile: daemonPID,
			ProcessName: "no-such-daemon-name",
		}
		Inspect(context.Background(), nil, svc)
		assert.Equal(t, svc.Status, StatusBroken)
	})

	t.Run("supervisor alive but daemon gone", func(t *testing.T) {
		dir := t.TempDir()
		supPID := filepath.Join(dir, "rpcd.pid")
		assert.NilError(t, os.WriteFile(supPID, selfPID, 0o644))

		svc := &Service{
			Name: ServiceRPCD, Kind: KindProcess,
			SupervisorPIDFile: supPID,
			DaemonPIDFile:     filepath.Join(dir, "msfrpcd.pid"),
			ProcessName:       "msfrpcd",
		}
		Inspect(context.Background(), nil, svc)
		assert.Equal(t, svc.Status, StatusBroken)
	})
}

func TestInspectAll(t *testing.T) {
	cfg := loadTestConfig(t, "")
	t.Setenv("MSFMCP_RUN_DIR", t.TempDir())
	services := Services(cfg)
	src := &fakeUnitSource{statuses: map[string]*UnitStatus{
		MCPUnit:   {ActiveState: "active", MainPID: 7},
		NginxUnit: {ActiveState: "inactive"},
	}}
	assert.NilError(t, InspectAll(context.Background(), src, services))

	mcp, err := Lookup(services, ServiceMCP)
	assert.NilError(t, err)
	assert.Equal(t, mcp.Status, StatusRunning)
	nginx, err := Lookup(services, ServiceNginx)
	assert.NilError(t, err)
	assert.Equal(t, nginx.Status, StatusStopped)
	rpcd, err := Lookup(services, ServiceRPCD)
	assert.NilError(t, err)
	assert.Equal(t, rpcd.Status, StatusStopped)
}
