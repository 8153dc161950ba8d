// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package yamlutil formats stack.yaml content so that hand-written
// comments, blank lines, and indentation survive programmatic edits.
package yamlutil

import (
	"fmt"

	"github.com/google/yamlfmt"
	"github.com/google/yamlfmt/formatters/basic"
)

type Formatter struct {
	formatter *basic.BasicFormatter
}

// NewFormatter returns a basic yamlfmt formatter configured to preserve
// indentation and empty lines.
func NewFormatter() (*Formatter, error) {
	factory := basic.BasicFormatterFactory{}
	config := map[string]any{
		"indentless_arrays":         true,
		"line_ending":               "lf",
		"pad_line_comments":         2,
		"retain_line_breaks":        true,
		"retain_line_breaks_single": false,
	}
	formatter, err := factory.NewFormatter(config)
	if err != nil {
		return nil, err
	}
	basicFormatter, ok := formatter.(*basic.BasicFormatter)
	if !ok {
		return nil, fmt.Errorf("unexpected formatter type: %T", formatter)
	}
	return &Formatter{formatter: basicFormatter}, nil
}

// Before prepares content for a transformation that would otherwise drop
// blank lines, e.g. a yq evaluation. Format undoes the preparation.
//
// ApplyFeatures runs with FeatureApplyBefore both here and inside
// Format; the feature tolerates being applied twice, but future yamlfmt
// versions may not.
func (f *Formatter) Before(content []byte) ([]byte, error) {
	return f.formatter.Features.ApplyFeatures(content, yamlfmt.FeatureApplyBefore)
}

func (f *Formatter) Format(content []byte) ([]byte, error) {
	return f.formatter.Format(content)
}
