// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package prereq checks the external tools the stack depends on before
// anything is installed or started.
package prereq

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/coreos/go-semver/semver"
	"github.com/coreos/go-systemd/v22/util"

	"github.com/sideffect263/metasploit-mcp/pkg/executil"
	"github.com/sideffect263/metasploit-mcp/pkg/version/versionutil"
)

// MinMetasploitVersion is the oldest Metasploit Framework release the RPC
// bootstrap is known to work with.
const MinMetasploitVersion = "6.0.0"

type Check struct {
	Name string
	OK   bool
	// Detail is the resolved path or version when OK, the problem otherwise.
	Detail string
	// Remedy is printed when the check fails.
	Remedy string
}

func lookPathCheck(name, remedy string) Check {
	p, err := exec.LookPath(name)
	if err != nil {
		return Check{Name: name, OK: false, Detail: "not found in PATH", Remedy: remedy}
	}
	return Check{Name: name, OK: true, Detail: p}
}

// CheckAll runs every prerequisite check. It never returns an error;
// failures are reported in the returned slice.
func CheckAll(ctx context.Context, pythonBin string) []Check {
	checks := []Check{
		systemdCheck(),
		lookPathCheck(pythonBin, "apt-get install -y python3"),
		lookPathCheck("pip3", "apt-get install -y python3-pip"),
		lookPathCheck("nginx", "apt-get install -y nginx"),
	}
	return append(checks, metasploitCheck(ctx))
}

func systemdCheck() Check {
	if !util.IsRunningSystemd() {
		return Check{
			Name:   "systemd",
			OK:     false,
			Detail: "does not seem to be running",
			Remedy: "only systemd hosts are supported",
		}
	}
	return Check{Name: "systemd", OK: true, Detail: "running"}
}

func metasploitCheck(ctx context.Context) Check {
	c := Check{Name: "msfconsole"}
	if _, err := exec.LookPath("msfconsole"); err != nil {
		c.Detail = "not found in PATH"
		c.Remedy = "run `msfmcpctl install` to install the Metasploit Framework"
		return c
	}
	ver, err := MetasploitVersion(ctx)
	if err != nil {
		c.Detail = err.Error()
		c.Remedy = "run `msfconsole --version` manually to inspect the failure"
		return c
	}
	if ver.LessThan(*semver.New(MinMetasploitVersion)) {
		c.Detail = fmt.Sprintf("version %s is older than %s", ver, MinMetasploitVersion)
		c.Remedy = "run `msfupdate` to upgrade the Metasploit Framework"
		return c
	}
	c.OK = true
	c.Detail = "version " + ver.String()
	return c
}

// msfVersionRegexp matches the version in `msfconsole --version` output,
// which looks like "Framework Version: 6.4.18-dev".
var msfVersionRegexp = regexp.MustCompile(`Framework Version:\s*([0-9]+\.[0-9]+\.[0-9]+[0-9A-Za-z.-]*)`)

// MetasploitVersion runs `msfconsole --version` and parses the result.
func MetasploitVersion(ctx context.Context) (*semver.Version, error) {
	out, err := executil.RunCombined(ctx, []string{"msfconsole", "--version"})
	if err != nil {
		return nil, err
	}
	return parseMetasploitVersion(out)
}

func parseMetasploitVersion(out string) (*semver.Version, error) {
	m := msfVersionRegexp.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("failed to find a version in %q", out)
	}
	// msfconsole reports versions like "6.4.50-dev-"; the suffix is a build
	// marker, not a semver pre-release, so it is stripped before comparing
	ver, err := versionutil.Parse(m[1])
	if err != nil {
		return nil, fmt.Errorf("failed to parse Metasploit version %q: %w", m[1], err)
	}
	return ver, nil
}

// Verify returns an error listing every failed check with its remedy.
func Verify(checks []Check) error {
	var failed []string
	for _, c := range checks {
		if !c.OK {
			failed = append(failed, fmt.Sprintf("- %s: %s (hint: %s)", c.Name, c.Detail, c.Remedy))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("prerequisite checks failed:\n%s", strings.Join(failed, "\n"))
	}
	return nil
}

// Write renders the checks as a table.
func Write(w io.Writer, checks []Check) error {
	tw := tabwriter.NewWriter(w, 4, 8, 4, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOK\tDETAIL")
	for _, c := range checks {
		ok := "yes"
		detail := c.Detail
		if !c.OK {
			ok = "no"
			detail += " (hint: " + c.Remedy + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, ok, detail)
	}
	return tw.Flush()
}
