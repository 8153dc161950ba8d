// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httputil

// ErrorJSON is the error body shape JSON-speaking servers use with
// non-2XX status codes.
type ErrorJSON struct {
	Message string `json:"message"`
}
