// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package stackyaml

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/sideffect263/metasploit-mcp/pkg/osutil"
)

//go:embed stack.TEMPLATE.yaml
var defaultTemplate []byte

// DefaultTemplate returns the commented stack.yaml the installer seeds a
// fresh host with. All values in it match the built-in defaults.
func DefaultTemplate() []byte {
	return defaultTemplate
}

// Load loads the yaml and fills unspecified fields with default values.
//
// Load does not validate. Use Validate for validation.
func Load(b []byte) (*Stack, error) {
	var y Stack
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, err
	}
	var strictY Stack
	if err := yaml.UnmarshalWithOptions(b, &strictY, yaml.Strict()); err != nil {
		logrus.WithError(err).Warn("unknown fields in stack.yaml are ignored")
	}
	FillDefault(&y)
	return &y, nil
}

// LoadFile loads path. The caller sees os.ErrNotExist when the file is
// missing; use LoadOrDefault for read-only commands that should work on an
// uninstalled host.
func LoadFile(path string) (*Stack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	y, err := Load(b)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", path, err)
	}
	return y, nil
}

// LoadOrDefault loads path, falling back to the built-in defaults when the
// file does not exist yet.
func LoadOrDefault(path string) (*Stack, error) {
	y, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		var empty Stack
		FillDefault(&empty)
		return &empty, nil
	}
	return y, err
}

func marshalString(s string) ([]byte, error) {
	if s == "null" || s == "~" {
		// work around go-yaml bugs
		return []byte("\"" + s + "\""), nil
	}
	return yaml.Marshal(s)
}

// Save marshals the config.
//
// Save does not fill defaults. Use FillDefault.
func Save(y *Stack) ([]byte, error) {
	options := []yaml.EncodeOption{yaml.CustomMarshaler[string](marshalString)}
	return yaml.MarshalWithOptions(y, options...)
}

// SaveFile writes the config to path atomically. The file carries the RPC
// password, hence the tight mode.
func SaveFile(path string, y *Stack) error {
	b, err := Save(y)
	if err != nil {
		return err
	}
	return osutil.WriteFileAtomically(path, b, 0o600)
}
