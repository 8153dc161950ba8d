// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/sideffect263/metasploit-mcp/pkg/textutil"
)

type PrintOptions struct {
	AllFields     bool
	TerminalWidth int
}

var FormatHelp = "\n" +
	"These functions are available to go templates:\n\n" +
	textutil.IndentString(2,
		strings.Join(textutil.FuncHelp, "\n")+"\n")

// PrintServices prints services in a requested format to a given io.Writer.
// Supported formats are "json", "yaml", "table", or a go template.
func PrintServices(w io.Writer, services []*Service, format string, options *PrintOptions) error {
	switch format {
	case "json":
		format = "{{json .}}"
	case "yaml":
		format = "{{yaml .}}"
	case "table":
		all := options != nil && options.AllFields
		width := 0
		if options != nil {
			width = options.TerminalWidth
		}
		// DESCRIPTION is the widest column; drop it first on narrow terminals.
		columnWidth := 10
		hideDescription := false
		if width != 0 && 7*columnWidth > width && !all {
			hideDescription = true
		}

		tw := tabwriter.NewWriter(w, 4, 8, 4, ' ', 0)
		fmt.Fprint(tw, "NAME\tSTATUS\tKIND\tPID\tPORTS\tHEALTH")
		if !hideDescription {
			fmt.Fprint(tw, "\tDESCRIPTION")
		}
		fmt.Fprintln(tw)

		for _, svc := range services {
			status := svc.Status
			if status == StatusUnknown {
				status = "Unknown"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s",
				svc.Name,
				status,
				svc.Kind,
				formatPID(svc.PID),
				formatPorts(svc.Ports),
				textutil.MissingString("-", svc.Health),
			)
			if !hideDescription {
				fmt.Fprintf(tw, "\t%s", svc.Description)
			}
			fmt.Fprint(tw, "\n")
		}
		return tw.Flush()
	default:
		// NOP
	}
	tmpl, err := template.New("format").Funcs(textutil.TemplateFuncMap).Parse(format)
	if err != nil {
		return fmt.Errorf("invalid go template: %w", err)
	}
	for _, svc := range services {
		if err := tmpl.Execute(w, svc); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func formatPID(pid int) string {
	if pid == 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func formatPorts(ports []int) string {
	if len(ports) == 0 {
		return "-"
	}
	ss := make([]string, len(ports))
	for i, p := range ports {
		ss[i] = strconv.Itoa(p)
	}
	return strings.Join(ss, ",")
}
