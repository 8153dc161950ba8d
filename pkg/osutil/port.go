// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// IsTCPPortOpen reports whether something accepts connections on addr:port.
func IsTCPPortOpen(addr string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitTCPPort polls addr:port every interval until a connection succeeds or
// ctx is done. It replaces fixed-length sleeps after daemon spawns; the caller
// bounds the wait with a context deadline.
func WaitTCPPort(ctx context.Context, addr string, port int, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if IsTCPPortOpen(addr, port, interval) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %s to accept connections: %w",
				net.JoinHostPort(addr, strconv.Itoa(port)), ctx.Err())
		case <-ticker.C:
		}
	}
}
