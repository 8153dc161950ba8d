// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package downloader fetches the Metasploit installer script with a
// progress bar and optional digest verification.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/httpclientutil"
	"github.com/sideffect263/metasploit-mcp/pkg/localpathutil"
	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
	"github.com/sideffect263/metasploit-mcp/pkg/progressbar"
)

// HideProgress disables the progress bar. Used only for testing.
var HideProgress bool

type Status = string

const (
	StatusUnknown    Status = ""
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
)

// Result describes what Download did.
type Result struct {
	Status          Status
	ValidatedDigest bool
}

type options struct {
	description    string
	expectedDigest digest.Digest
}

type Opt func(*options) error

// WithDescription names the download in the progress output.
// Defaults to the URL.
func WithDescription(description string) Opt {
	return func(o *options) error {
		o.description = description
		return nil
	}
}

// WithExpectedDigest makes Download fail unless the fetched content
// matches expectedDigest. A file that already exists at the local
// path is not re-verified.
func WithExpectedDigest(expectedDigest digest.Digest) Opt {
	return func(o *options) error {
		if expectedDigest == "" {
			return nil
		}
		if !expectedDigest.Algorithm().Available() {
			return fmt.Errorf("expected digest algorithm %q is not available", expectedDigest.Algorithm())
		}
		if err := expectedDigest.Validate(); err != nil {
			return err
		}
		o.expectedDigest = expectedDigest
		return nil
	}
}

// Download fetches remote into local. remote is an HTTP(S) URL, a
// `file://` URL, or a plain path. When local already exists the
// download is skipped and the existing content is trusted as is.
func Download(ctx context.Context, local, remote string, opts ...Opt) (*Result, error) {
	var o options
	for _, f := range opts {
		if err := f(&o); err != nil {
			return nil, err
		}
	}

	dst, err := resolveLocalPath(local)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dst); err == nil {
		logrus.Debugf("%q already exists, skipping download from %q (and skipping digest validation)", dst, remote)
		return &Result{Status: StatusSkipped}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}

	if IsLocal(remote) {
		err = copyLocal(dst, remote, o.expectedDigest)
	} else {
		err = fetchHTTP(ctx, dst, remote, o)
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:          StatusDownloaded,
		ValidatedDigest: o.expectedDigest != "",
	}, nil
}

// IsLocal reports whether s names a local file rather than a remote URL.
func IsLocal(s string) bool {
	return !strings.Contains(s, "://") || strings.HasPrefix(s, "file://")
}

// resolveLocalPath strips an optional `file://` scheme and expands the
// path to an absolute one. A `file://` URL must already be absolute.
func resolveLocalPath(s string) (string, error) {
	switch {
	case s == "":
		return "", errors.New("got empty path")
	case !IsLocal(s):
		return "", fmt.Errorf("got non-local path: %q", s)
	case strings.HasPrefix(s, "file://"):
		p := strings.TrimPrefix(s, "file://")
		if !filepath.IsAbs(p) {
			return "", fmt.Errorf("got non-absolute path %q", p)
		}
		return p, nil
	}
	return localpathutil.Expand(s)
}

func copyLocal(dst, src string, expected digest.Digest) error {
	srcPath, err := resolveLocalPath(src)
	if err != nil {
		return err
	}
	if err := verifyFileDigest(srcPath, expected); err != nil {
		return err
	}
	return osutil.CopyFile(dst, srcPath)
}

// verifyFileDigest reads path back and compares its digest with
// expected. An empty expected digest verifies nothing.
func verifyFileDigest(path string, expected digest.Digest) error {
	if expected == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	actual, err := expected.Algorithm().FromReader(f)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("expected digest %q, got %q", expected, actual)
	}
	return nil
}

func fetchHTTP(ctx context.Context, dst, url string, o options) error {
	logrus.Debugf("downloading %q into %q", url, dst)
	resp, err := httpclientutil.Get(ctx, http.DefaultClient, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp := tempPath(dst)
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	defer f.Close()

	bar, err := progressbar.New(resp.ContentLength)
	if err != nil {
		return err
	}
	if HideProgress {
		bar.Set(pb.Static, true)
	} else {
		description := o.description
		if description == "" {
			description = url
		}
		// the bar itself renders on stderr as well
		fmt.Fprintf(os.Stderr, "Downloading %s\n", description)
	}

	bar.Start()
	_, err = io.Copy(f, bar.NewProxyReader(resp.Body))
	bar.Finish()
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := verifyFileDigest(tmp, o.expectedDigest); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

var tempfileCount atomic.Uint64

// tempPath returns a sibling name unique to this process and call, so
// concurrent downloads never collide and a failed one never leaves a
// half-written target. Renaming onto the final path is atomic on posix.
func tempPath(path string) string {
	return fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), tempfileCount.Add(1))
}
