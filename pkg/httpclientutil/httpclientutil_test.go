// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httpclientutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/v3/assert"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/json-error":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"msfrpcd unreachable"}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	t.Run("2XX", func(t *testing.T) {
		resp, err := Get(ctx, http.DefaultClient, srv.URL+"/healthz")
		assert.NilError(t, err)
		resp.Body.Close()
	})

	t.Run("JSON error body unwrapped", func(t *testing.T) {
		_, err := Get(ctx, http.DefaultClient, srv.URL+"/json-error")
		assert.Error(t, err, "msfrpcd unreachable")
		var se *HTTPStatusError
		assert.Assert(t, errors.As(err, &se))
		assert.Equal(t, se.StatusCode, http.StatusServiceUnavailable)
	})

	t.Run("plain error body", func(t *testing.T) {
		_, err := Get(ctx, http.DefaultClient, srv.URL+"/other")
		assert.ErrorContains(t, err, "unexpected HTTP status")
	})
}
