// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/logrusutil"
)

// Watch tails the supervisor's stdout and stderr logs. Events parsed from
// stdout are passed to onEvent until it returns true; stderr lines are
// propagated into the current logger.
func Watch(ctx context.Context, stdoutPath, stderrPath string, begin time.Time, onEvent func(Event) bool) error {
	stdoutTail, err := tail.TailFile(stdoutPath,
		tail.Config{
			Follow:    true,
			MustExist: true,
		})
	if err != nil {
		return err
	}
	defer func() {
		_ = stdoutTail.Stop()
		// Do NOT call stdoutTail.Cleanup(), it prevents the process from ever tailing the file again
	}()
	stderrTail, err := tail.TailFile(stderrPath,
		tail.Config{
			Follow:    true,
			MustExist: true,
		})
	if err != nil {
		return err
	}
	defer func() {
		_ = stderrTail.Stop()
		// Do NOT call stderrTail.Cleanup(), it prevents the process from ever tailing the file again
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line := <-stdoutTail.Lines:
			if line == nil {
				break loop
			}
			if line.Err != nil {
				logrus.Error(line.Err)
			}
			if line.Text == "" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(line.Text), &ev); err != nil {
				return fmt.Errorf("failed to unmarshal %q as %T: %w", line.Text, ev, err)
			}
			logrus.WithField("event", ev).Debugf("received an event")
			if stop := onEvent(ev); stop {
				return nil
			}
		case line := <-stderrTail.Lines:
			if line.Err != nil {
				logrus.Error(line.Err)
			}
			logrusutil.PropagateJSON(logrus.StandardLogger(), []byte(line.Text), "[rpcd] ", begin)
		}
	}
	return nil
}
