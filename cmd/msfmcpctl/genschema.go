// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sideffect263/metasploit-mcp/pkg/jsonschemautil"
	"github.com/sideffect263/metasploit-mcp/pkg/stackyaml"
)

func newGenSchemaCommand() *cobra.Command {
	genschemaCommand := &cobra.Command{
		Use:    "generate-jsonschema [FILE...]",
		Short:  "Generate the JSON schema of stack.yaml, optionally validating FILEs against it",
		Args:   WrapArgsError(cobra.ArbitraryArgs),
		RunE:   genschemaAction,
		Hidden: true,
	}
	genschemaCommand.Flags().String("schemafile", "", "Output file")
	return genschemaCommand
}

func genschemaAction(cmd *cobra.Command, args []string) error {
	schemaFile, err := cmd.Flags().GetString("schemafile")
	if err != nil {
		return err
	}

	schema, err := stackSchema()
	if err != nil {
		return err
	}
	j, err := json.MarshalIndent(schema, "", "    ")
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(j))
		return err
	}

	if schemaFile == "" {
		return errors.New("need --schemafile to validate")
	}
	if err := os.WriteFile(schemaFile, j, 0o644); err != nil {
		return err
	}
	for _, f := range args {
		if err := jsonschemautil.Validate(schemaFile, f); err != nil {
			return fmt.Errorf("%q: %w", f, err)
		}
		logrus.Infof("%q: OK", f)
	}
	return nil
}

// stackSchema reflects the stack.yaml schema and pins the enum values
// reflection cannot see.
func stackSchema() (*jsonschema.Schema, error) {
	schema := jsonschema.Reflect(&stackyaml.Stack{})
	mcp, ok := schema.Definitions["MCP"]
	if !ok {
		return nil, errors.New(`definition "MCP" not found`)
	}
	if err := pinEnum(mcp.Properties, "transport", stackyaml.TransportTypes); err != nil {
		return nil, err
	}
	return schema, nil
}

// pinEnum permits nil (field unset) plus each of the names.
func pinEnum(props *orderedmap.OrderedMap[string, *jsonschema.Schema], name string, names []string) error {
	prop, ok := props.Get(name)
	if !ok {
		return fmt.Errorf("property %q not found", name)
	}
	vals := []any{nil}
	for _, n := range names {
		vals = append(vals, n)
	}
	prop.Enum = vals
	return nil
}
