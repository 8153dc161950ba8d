// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package editutil opens stack.yaml in the user's text editor.
package editutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/editutil/editorcmd"
)

// OpenEditor round-trips content through the user's editor and returns
// the modified bytes with hdr stripped. It returns nil when the file
// was saved effectively empty, which callers treat as an aborted edit.
func OpenEditor(content []byte, hdr string) ([]byte, error) {
	editor := editorcmd.Detect()
	if editor == "" {
		return nil, errors.New("could not detect a text editor binary, try setting $EDITOR")
	}

	tmpPath, err := writeTempYAML(append([]byte(hdr), content...))
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpPath)

	logrus.Debugf("opening editor %q for %q", editor, tmpPath)
	editorCmd := exec.Command(editor, tmpPath)
	editorCmd.Env = os.Environ()
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return nil, fmt.Errorf("could not execute editor %q for %q: %w", editor, tmpPath, err)
	}

	b, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, err
	}
	modified := strings.TrimPrefix(string(b), hdr)
	if strings.TrimSpace(modified) == "" {
		return nil, nil
	}
	return []byte(modified), nil
}

// writeTempYAML writes b to a fresh tempfile with a .yaml suffix, so
// editors enable YAML highlighting for it.
func writeTempYAML(b []byte) (string, error) {
	f, err := os.CreateTemp("", "msfmcp-editor-*.yaml")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.RemoveAll(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.RemoveAll(path)
		return "", err
	}
	return path, nil
}
