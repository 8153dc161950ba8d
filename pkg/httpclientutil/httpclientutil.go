// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// From https://github.com/rootless-containers/rootlesskit/blob/v0.14.2/pkg/api/client/client.go
// LICENSE: https://github.com/rootless-containers/rootlesskit/blob/v0.14.2/LICENSE

// Package httpclientutil turns non-2XX HTTP responses into errors
// carrying a bounded excerpt of the response body.
package httpclientutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sideffect263/metasploit-mcp/pkg/httputil"
)

// BodyMaxLength caps how much of an error response body is retained.
const BodyMaxLength = 64 * 1024

// Get issues a GET and fails unless the status is 2XX. On success the
// caller owns resp.Body.
func Get(ctx context.Context, c *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if err := Successful(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// Successful returns an *HTTPStatusError unless resp has a 2XX status.
func Successful(resp *http.Response) error {
	if resp == nil {
		return errors.New("nil response")
	}
	if resp.StatusCode/100 == 2 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, BodyMaxLength))
	return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(b)}
}

// HTTPStatusError is the non-2XX outcome of a request.
type HTTPStatusError struct {
	StatusCode int
	// Body holds at most BodyMaxLength bytes of the response body.
	Body string
}

// Error returns the message field when Body parses as
// httputil.ErrorJSON, else the status text with the raw body.
func (e *HTTPStatusError) Error() string {
	var ej httputil.ErrorJSON
	if e.Body != "" && json.Unmarshal([]byte(e.Body), &ej) == nil && ej.Message != "" {
		return ej.Message
	}
	return fmt.Sprintf("unexpected HTTP status %s, body=%q", http.StatusText(e.StatusCode), e.Body)
}
