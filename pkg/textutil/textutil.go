// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutil renders text/template templates, with the func map
// used by `status --format`.
package textutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"
)

// ExecuteTemplate executes a text/template template.
func ExecuteTemplate(tmpl string, args any) ([]byte, error) {
	x, err := template.New("").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := x.Execute(&b, args); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// PrefixString prepends prefix to every non-empty line of text.
func PrefixString(prefix, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// IndentString indents every non-empty line of text by size spaces.
func IndentString(size int, text string) string {
	return PrefixString(strings.Repeat(" ", size), text)
}

// MissingString substitutes message when text is empty.
func MissingString(message, text string) string {
	if text == "" {
		return message
	}
	return text
}

// TemplateFuncMap is the FuncMap for --format templates.
var TemplateFuncMap = template.FuncMap{
	"json": func(v any) (string, error) {
		var b bytes.Buffer
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("failed to marshal as JSON: %+v: %w", v, err)
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	},
	"yaml": func(v any) (string, error) {
		var b bytes.Buffer
		if err := yaml.NewEncoder(&b).Encode(v); err != nil {
			return "", fmt.Errorf("failed to marshal as YAML: %+v: %w", v, err)
		}
		return "---\n" + strings.TrimSuffix(b.String(), "\n"), nil
	},
	"indent": func(a ...any) (string, error) {
		size, text, err := optIntArg(2, a)
		if err != nil {
			return "", err
		}
		return IndentString(size, text), nil
	},
	"missing": func(a ...any) (string, error) {
		message, text, err := optStringArg("<missing>", a)
		if err != nil {
			return "", err
		}
		return MissingString(message, text), nil
	},
}

// FuncHelp documents TemplateFuncMap for --help output.
var FuncHelp = []string{
	"indent <size>: add spaces to beginning of each line",
	"missing <message>: return message if the text is empty",
}

// optIntArg splits a into an optional leading int (defaulting to def)
// and a final string.
func optIntArg(def int, a []any) (int, string, error) {
	opt := def
	switch len(a) {
	case 2:
		var ok bool
		if opt, ok = a[0].(int); !ok {
			return 0, "", errors.New("optional first argument must be an integer")
		}
	case 1:
	default:
		return 0, "", errors.New("function takes one string argument and an optional integer")
	}
	text, ok := a[len(a)-1].(string)
	if !ok {
		return 0, "", errors.New("last argument must be a string")
	}
	return opt, text, nil
}

// optStringArg splits a into an optional leading string (defaulting to
// def) and a final string.
func optStringArg(def string, a []any) (string, string, error) {
	opt := def
	switch len(a) {
	case 2:
		var ok bool
		if opt, ok = a[0].(string); !ok {
			return "", "", errors.New("optional first argument must be a string")
		}
	case 1:
	default:
		return "", "", errors.New("function takes one string argument and an optional message")
	}
	text, ok := a[len(a)-1].(string)
	if !ok {
		return "", "", errors.New("last argument must be a string")
	}
	return opt, text, nil
}
