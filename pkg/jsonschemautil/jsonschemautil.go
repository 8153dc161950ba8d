// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsonschemautil validates YAML instance files against a JSON
// schema, e.g. stack.yaml against the schema emitted by
// `msfmcpctl genschema`.
package jsonschemautil

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate checks the YAML file instancefile against the JSON schema in
// schemafile.
func Validate(schemafile, instancefile string) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemafile)
	if err != nil {
		return err
	}
	instance, err := os.ReadFile(instancefile)
	if err != nil {
		return err
	}
	var y any
	if err := yaml.Unmarshal(instance, &y); err != nil {
		return err
	}
	return schema.Validate(y)
}
