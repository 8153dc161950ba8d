// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package envfile reads and rewrites KEY=VALUE environment files of the kind
// consumed by systemd's EnvironmentFile= and by POSIX shells.
//
// Rewrites are line-preserving: unknown lines, comments, and the original key
// order survive an upsert, so repeated runs never duplicate entries.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
)

type Entry struct {
	Key   string
	Value string
}

// Parse extracts KEY=VALUE entries. Comment and blank lines are skipped,
// surrounding single or double quotes around values are removed, and a
// leading "export " prefix is tolerated.
func Parse(data []byte) []Entry {
	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return entries
}

// Lookup returns the value of key and whether it was present.
func Lookup(entries []Entry, key string) (string, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Upsert replaces the KEY=VALUE lines named by entries and appends the
// missing ones at the end. All other lines pass through unmodified.
func Upsert(existing []byte, entries []Entry) []byte {
	pending := make(map[string]string, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := pending[e.Key]; !ok {
			order = append(order, e.Key)
		}
		pending[e.Key] = e.Value
	}

	var sb strings.Builder
	lines := strings.Split(string(existing), "\n")
	// A trailing newline produces a final empty element; drop it so we do not
	// emit an extra blank line on every rewrite.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		replaced := false
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			noExport := strings.TrimPrefix(trimmed, "export ")
			if k, _, ok := strings.Cut(noExport, "="); ok {
				k = strings.TrimSpace(k)
				if v, want := pending[k]; want {
					fmt.Fprintf(&sb, "%s=%s\n", k, v)
					delete(pending, k)
					replaced = true
				}
			}
		}
		if !replaced {
			sb.WriteString(line + "\n")
		}
	}
	for _, k := range order {
		if v, ok := pending[k]; ok {
			fmt.Fprintf(&sb, "%s=%s\n", k, v)
		}
	}
	return []byte(sb.String())
}

// UpsertFile applies Upsert to path, creating it with perm when missing.
// The file is replaced atomically.
func UpsertFile(path string, entries []Entry, perm os.FileMode) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return osutil.WriteFileAtomically(path, Upsert(existing, entries), perm)
}

// UpsertBlock replaces the region delimited by the begin and end marker lines
// with block, or appends the whole region when the markers are absent.
// Calling it twice with the same markers leaves exactly one copy.
func UpsertBlock(existing []byte, begin, end, block string) []byte {
	content := string(existing)
	rendered := begin + "\n" + strings.TrimRight(block, "\n") + "\n" + end + "\n"

	if i := strings.Index(content, begin); i >= 0 {
		rest := content[i:]
		if j := strings.Index(rest, end); j >= 0 {
			tail := rest[j+len(end):]
			tail = strings.TrimPrefix(tail, "\n")
			return []byte(content[:i] + rendered + tail)
		}
		// begin marker without end marker; treat everything from begin as the block
		return []byte(content[:i] + rendered)
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return []byte(content + rendered)
}

// UpsertBlockFile applies UpsertBlock to path, creating it with perm when
// missing.
func UpsertBlockFile(path, begin, end, block string, perm os.FileMode) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return osutil.WriteFileAtomically(path, UpsertBlock(existing, begin, end, block), perm)
}
