// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package logrusutil re-emits JSONFormatter lines from the rpcd
// supervisor log into the parent command's logger.
package logrusutil

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const epsilon = 1 * time.Second

// JSON is the line shape produced by logrus.JSONFormatter.
type JSON struct {
	Level string    `json:"level"`
	Msg   string    `json:"msg"`
	Time  time.Time `json:"time"`
}

// PropagateJSON logs a JSONFormatter line through logger, preserving
// its level, time, and extra fields. Lines older than begin are
// dropped (the log file is replayed from the top on every watch).
// Lines that do not parse are logged verbatim at InfoLevel.
//
// PanicLevel and FatalLevel are demoted to ErrorLevel, recording the
// original level as a field; the supervisor's death must not take the
// foreground command with it.
func PropagateJSON(logger *logrus.Logger, jsonLine []byte, header string, begin time.Time) {
	if strings.TrimSpace(string(jsonLine)) == "" {
		return
	}
	fallback := func() {
		logrus.NewEntry(logger).Info(header + string(jsonLine))
	}

	var j JSON
	if err := json.Unmarshal(jsonLine, &j); err != nil {
		fallback()
		return
	}
	if !j.Time.IsZero() && !begin.IsZero() && begin.After(j.Time.Add(epsilon)) {
		return
	}
	lv, err := logrus.ParseLevel(j.Level)
	if err != nil {
		fallback()
		return
	}

	entry := logrus.NewEntry(logger).WithTime(j.Time)
	// level, msg, and time are carried in j; everything else on the
	// line came from WithField/WithError and is forwarded as is.
	var fields logrus.Fields
	if err := json.Unmarshal(jsonLine, &fields); err == nil {
		delete(fields, "level")
		delete(fields, "msg")
		delete(fields, "time")
		entry = entry.WithFields(fields)
	}
	if lv <= logrus.FatalLevel {
		entry = entry.WithField("level", lv)
		lv = logrus.ErrorLevel
	}
	entry.Log(lv, header+j.Msg)
}
