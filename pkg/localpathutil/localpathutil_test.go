// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package localpathutil

import (
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestExpand(t *testing.T) {
	h, err := Expand("~")
	assert.NilError(t, err)
	assert.Assert(t, filepath.IsAbs(h))

	d, err := Expand("~/foo")
	assert.NilError(t, err)
	assert.Equal(t, d, filepath.Join(h, "foo"))

	_, err = Expand("")
	assert.Error(t, err, "empty path")

	_, err = Expand("~somebody/else")
	assert.ErrorContains(t, err, "unexpandable")
}
