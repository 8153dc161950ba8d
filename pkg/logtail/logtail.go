// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package logtail shows stack logs: journald units through journalctl,
// plain log files through a tail-style reader.
package logtail

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/store"
	"github.com/sideffect263/metasploit-mcp/pkg/store/dirnames"
	"github.com/sideffect263/metasploit-mcp/pkg/store/filenames"
)

// DefaultLines is how many trailing lines are shown when -n is not given.
const DefaultLines = 50

// Target is one log stream. Exactly one of Unit and Path is set.
type Target struct {
	Name        string
	Description string
	Unit        string
	Path        string
}

// Targets returns the selectable log streams.
func Targets() []Target {
	logDir := dirnames.LogDir()
	return []Target{
		{Name: "mcp", Description: "MCP server journal", Unit: store.MCPUnit},
		{Name: "nginx", Description: "nginx journal", Unit: store.NginxUnit},
		{Name: "nginx-access", Description: "nginx access log", Path: "/var/log/nginx/access.log"},
		{Name: "nginx-error", Description: "nginx error log", Path: "/var/log/nginx/error.log"},
		{Name: "rpcd", Description: "rpcd supervisor log", Path: filepath.Join(logDir, filenames.SupervisorStderrLog)},
	}
}

// Lookup returns the named target.
func Lookup(targets []Target, name string) (Target, error) {
	var names []string
	for _, tgt := range targets {
		if tgt.Name == name {
			return tgt, nil
		}
		names = append(names, tgt.Name)
	}
	return Target{}, fmt.Errorf("unknown log target %q (must be one of %v)", name, names)
}

// Show streams the target to w (journald targets go straight to the
// caller's stdio).
func Show(ctx context.Context, w io.Writer, tgt Target, lines int, follow bool) error {
	if tgt.Unit != "" {
		return journal(ctx, tgt.Unit, lines, follow)
	}
	return file(ctx, w, tgt.Path, lines, follow)
}

func journal(ctx context.Context, unit string, lines int, follow bool) error {
	if _, err := exec.LookPath("journalctl"); err != nil {
		return fmt.Errorf("journalctl is not available (hint: only systemd hosts are supported): %w", err)
	}
	args := []string{"journalctl", "-u", unit, "-n", strconv.Itoa(lines), "--no-pager"}
	if follow {
		args = append(args, "-f")
	}
	return executil.RunPassthrough(ctx, args)
}

func file(ctx context.Context, w io.Writer, path string, lines int, follow bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open the log file (hint: has the service ever run?): %w", err)
	}
	off, err := seekOffsetLastLines(f, lines)
	f.Close()
	if err != nil {
		return err
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: off, Whence: io.SeekStart},
	})
	if err != nil {
		return err
	}
	defer func() {
		// Do NOT call t.Cleanup(), it prevents the process from ever tailing the file again
		_ = t.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				// without Follow the channel closes at EOF
				return t.Err()
			}
			if line.Err != nil {
				logrus.Error(line.Err)
				continue
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}

// seekOffsetLastLines returns the byte offset where the last n lines of f
// start. Reads backwards in blocks so large access logs are not slurped.
func seekOffsetLastLines(f *os.File, n int) (int64, error) {
	const blockSize = 32 * 1024
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := fi.Size()
	if size == 0 {
		return 0, nil
	}
	if n <= 0 {
		return size, nil
	}
	var newlines int
	off := size
	buf := make([]byte, blockSize)
	for off > 0 {
		readSize := int64(blockSize)
		if off < readSize {
			readSize = off
		}
		off -= readSize
		b := buf[:readSize]
		if _, err := f.ReadAt(b, off); err != nil {
			return 0, err
		}
		for i := len(b) - 1; i >= 0; i-- {
			if b[i] != '\n' {
				continue
			}
			if off+int64(i) == size-1 {
				// the final newline terminates the last line
				continue
			}
			newlines++
			if newlines == n {
				return off + int64(i) + 1, nil
			}
		}
	}
	return 0, nil
}
