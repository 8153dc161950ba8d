// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package versionutil

import (
	"strings"

	"github.com/coreos/go-semver/semver"
)

// Parse parses a tool version string by removing the leading "v" character and
// stripping everything from the first "-" forward. Metasploit Framework reports
// versions like "6.4.50-dev-" and git builds report "v0.19.1-16-gf3dc6ed.m";
// neither suffix is a semver pre-release marker, so "6.4.50-dev-" parses as "6.4.50".
func Parse(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	version, _, _ = strings.Cut(version, "-")
	return semver.NewVersion(version)
}

func compare(toolVersion, oldVersion string) int {
	if toolVersion == "" {
		if oldVersion == "" {
			return 0
		}
		return -1
	}
	version, err := Parse(toolVersion)
	if err != nil {
		return 1
	}
	cmp := version.Compare(*semver.New(oldVersion))
	if cmp == 0 && strings.Contains(toolVersion, "-") {
		cmp = 1
	}
	return cmp
}

// GreaterThan returns true if the reported tool version is greater than a
// specific older version. Always returns false if the tool version is the
// empty string. Unparsable versions (like SHA1 commit ids) are treated as the
// latest version and return true. toolVersion may carry build suffixes, so
// "6.4.50-dev-" will be considered greater than "6.4.50".
func GreaterThan(toolVersion, oldVersion string) bool {
	return compare(toolVersion, oldVersion) > 0
}

// GreaterEqual return true if toolVersion >= oldVersion.
func GreaterEqual(toolVersion, oldVersion string) bool {
	return compare(toolVersion, oldVersion) >= 0
}
