// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package sdunit

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/util"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/store"
)

// ErrNoSystemd is returned by New on hosts not booted with systemd.
var ErrNoSystemd = errors.New("systemd does not seem to be running (hint: only systemd hosts are supported)")

// Conn is a connection to the systemd manager. It implements
// store.UnitSource.
type Conn struct {
	conn *dbus.Conn
}

// New connects to the systemd D-Bus API. Callers must Close the connection.
func New(ctx context.Context) (*Conn, error) {
	if !util.IsRunningSystemd() {
		return nil, ErrNoSystemd
	}
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &Conn{conn: conn}, nil
}

func (c *Conn) Close() {
	c.conn.Close()
}

// UnitStatus returns the runtime state of a unit. Querying a unit that is
// not loaded is not an error; systemd reports it as inactive.
func (c *Conn) UnitStatus(ctx context.Context, unitName string) (*store.UnitStatus, error) {
	props, err := c.conn.GetUnitPropertiesContext(ctx, unitName)
	if err != nil {
		return nil, fmt.Errorf("failed to get properties of unit %q: %w", unitName, err)
	}
	us := &store.UnitStatus{}
	us.ActiveState, _ = props["ActiveState"].(string)
	us.SubState, _ = props["SubState"].(string)
	us.UnitFileState, _ = props["UnitFileState"].(string)
	// MainPID lives on the Service interface, which non-service units
	// (e.g. a socket listed in extraUnits) do not implement.
	if prop, err := c.conn.GetServicePropertyContext(ctx, unitName, "MainPID"); err == nil {
		if pid, ok := prop.Value.Value().(uint32); ok {
			us.MainPID = int(pid)
		}
	}
	return us, nil
}

// StartUnit starts the unit and waits for the queued job to finish.
func (c *Conn) StartUnit(ctx context.Context, unitName string) error {
	return c.runJob(ctx, "start", unitName, c.conn.StartUnitContext)
}

// StopUnit stops the unit and waits for the queued job to finish.
func (c *Conn) StopUnit(ctx context.Context, unitName string) error {
	return c.runJob(ctx, "stop", unitName, c.conn.StopUnitContext)
}

// RestartUnit restarts the unit and waits for the queued job to finish.
func (c *Conn) RestartUnit(ctx context.Context, unitName string) error {
	return c.runJob(ctx, "restart", unitName, c.conn.RestartUnitContext)
}

func (c *Conn) runJob(ctx context.Context, verb, unitName string, queue func(context.Context, string, string, chan<- string) (int, error)) error {
	logrus.Debugf("requesting systemd to %s unit %q", verb, unitName)
	ch := make(chan string, 1)
	if _, err := queue(ctx, unitName, "replace", ch); err != nil {
		return fmt.Errorf("failed to %s unit %q: %w", verb, unitName, err)
	}
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s job for unit %q finished with result %q (hint: `journalctl -u %s`)", verb, unitName, result, unitName)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// EnableUnit enables the unit file, replacing stale symlinks if needed.
func (c *Conn) EnableUnit(ctx context.Context, unitName string) error {
	if _, _, err := c.conn.EnableUnitFilesContext(ctx, []string{unitName}, false, true); err != nil {
		return fmt.Errorf("failed to enable unit %q: %w", unitName, err)
	}
	return nil
}

// DisableUnit disables the unit file.
func (c *Conn) DisableUnit(ctx context.Context, unitName string) error {
	if _, err := c.conn.DisableUnitFilesContext(ctx, []string{unitName}, false); err != nil {
		return fmt.Errorf("failed to disable unit %q: %w", unitName, err)
	}
	return nil
}

// ResetFailed clears the failed state of a unit so that a later start is
// not rejected.
func (c *Conn) ResetFailed(ctx context.Context, unitName string) error {
	return c.conn.ResetFailedUnitContext(ctx, unitName)
}

// DaemonReload makes systemd re-read unit files from disk.
func (c *Conn) DaemonReload(ctx context.Context) error {
	logrus.Debug("reloading the systemd manager configuration")
	if err := c.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload the systemd manager configuration: %w", err)
	}
	return nil
}
