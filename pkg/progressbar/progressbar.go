// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package progressbar renders download progress on interactive
// terminals and stays silent everywhere else.
package progressbar

import (
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type ProgressBar struct {
	*pb.ProgressBar
}

// New returns a byte-count progress bar for a transfer of size bytes
// (-1 when unknown). The bar animates only when stderr is a terminal
// and logging is in text format; otherwise it is static.
func New(size int64) (*ProgressBar, error) {
	bar := &ProgressBar{pb.New64(size)}
	bar.Set(pb.Bytes, true)
	bar.SetWidth(80)
	if interactive() {
		bar.SetRefreshRate(200 * time.Millisecond)
		bar.SetTemplateString(`{{counters . }} {{bar . | green }} {{percent .}} {{speed . "%s/s"}}`)
	} else {
		bar.Set(pb.Static, true)
	}
	return bar, bar.Err()
}

// interactive reports whether the bar can render cleanly: both logrus
// and pb write to stderr, so it must be a terminal and the logs must
// not be JSON.
func interactive() bool {
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
