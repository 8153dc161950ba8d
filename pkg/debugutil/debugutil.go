// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package debugutil

// Debug is set by the `--debug` flag and is used to propagate it to
// re-executed child processes such as the rpcd supervisor.
var Debug bool
