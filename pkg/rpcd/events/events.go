// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package events defines the JSON event stream the rpcd supervisor writes
// to its stdout log. `start` tails the stream until a terminal event.
package events

import (
	"time"
)

type Status struct {
	Running bool `json:"running,omitempty"`
	// When Degraded is true, Running must be true as well
	Degraded bool `json:"degraded,omitempty"`
	// When Exiting is true, Running must be false
	Exiting bool `json:"exiting,omitempty"`

	Errors []string `json:"errors,omitempty"`

	// MsfrpcdPID is the pid of the supervised msfrpcd process.
	MsfrpcdPID int `json:"msfrpcdPID,omitempty"`
	// Port msfrpcd accepted its first connection on.
	Port int `json:"port,omitempty"`
}

type Event struct {
	Time   time.Time `json:"time,omitempty"`
	Status Status    `json:"status,omitempty"`
}
