// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"gotest.tools/v3/assert"
)

var testInstallerContents = []byte("#!/bin/sh\necho fake installer\n")

func TestMain(m *testing.M) {
	HideProgress = true
	os.Exit(m.Run())
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/msfinstall":
			_, _ = w.Write(testInstallerContents)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadRemote(t *testing.T) {
	srv := testServer(t)
	remote := srv.URL + "/msfinstall"
	goodDigest := digest.SHA256.FromBytes(testInstallerContents)
	wrongDigest := digest.SHA256.FromBytes([]byte("something else"))
	ctx := context.Background()

	t.Run("without digest", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), t.Name())
		r, err := Download(ctx, localPath, remote)
		assert.NilError(t, err)
		assert.Equal(t, StatusDownloaded, r.Status)

		got, err := os.ReadFile(localPath)
		assert.NilError(t, err)
		assert.DeepEqual(t, got, testInstallerContents)

		// download again, make sure StatusSkipped is returned
		r, err = Download(ctx, localPath, remote)
		assert.NilError(t, err)
		assert.Equal(t, StatusSkipped, r.Status)
	})
	t.Run("with digest", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), t.Name())
		_, err := Download(ctx, localPath, remote, WithExpectedDigest(wrongDigest))
		assert.ErrorContains(t, err, "expected digest")

		// the tempfile of the failed download must not leak into the target path
		_, err = os.Stat(localPath)
		assert.Assert(t, os.IsNotExist(err))

		r, err := Download(ctx, localPath, remote, WithExpectedDigest(goodDigest))
		assert.NilError(t, err)
		assert.Equal(t, StatusDownloaded, r.Status)
		assert.Equal(t, r.ValidatedDigest, true)
	})
	t.Run("http error", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), t.Name())
		_, err := Download(ctx, localPath, srv.URL+"/nonexistent")
		assert.Assert(t, err != nil)
	})
}

func TestDownloadLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("without digest", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), t.Name())
		localFile := filepath.Join(t.TempDir(), "test-file")
		assert.NilError(t, os.WriteFile(localFile, testInstallerContents, 0o644))

		r, err := Download(ctx, localPath, "file://"+localFile)
		assert.NilError(t, err)
		assert.Equal(t, StatusDownloaded, r.Status)
	})

	t.Run("with file digest", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), t.Name())
		localFile := filepath.Join(t.TempDir(), "some-file")
		assert.NilError(t, os.WriteFile(localFile, testInstallerContents, 0o644))
		wrongDigest := digest.SHA256.FromBytes([]byte{})

		_, err := Download(ctx, localPath, "file://"+localFile, WithExpectedDigest(wrongDigest))
		assert.ErrorContains(t, err, "expected digest")

		r, err := Download(ctx, localPath, "file://"+localFile, WithExpectedDigest(digest.SHA256.FromBytes(testInstallerContents)))
		assert.NilError(t, err)
		assert.Equal(t, StatusDownloaded, r.Status)
	})

	t.Run("relative file URL", func(t *testing.T) {
		_, err := Download(ctx, filepath.Join(t.TempDir(), t.Name()), "file://relative/path")
		assert.ErrorContains(t, err, "non-absolute")
	})
}
