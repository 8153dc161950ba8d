// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

package logrusutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
)

func newBufferLogger(output *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

func TestPropagateJSON(t *testing.T) {
	tests := []struct {
		name     string
		jsonLine string
		expected string
	}{
		{
			name:     "trace level",
			jsonLine: `{"level": "trace"}`,
			expected: "level=trace msg=header\n",
		},
		{
			name:     "info level",
			jsonLine: `{"level": "info"}`,
			expected: "level=info msg=header\n",
		},
		{
			name:     "error level",
			jsonLine: `{"level": "error"}`,
			expected: "level=error msg=header\n",
		},
		{
			name:     "panic is demoted to error",
			jsonLine: `{"level": "panic"}`,
			expected: "level=error msg=header fields.level=panic\n",
		},
		{
			name:     "fatal is demoted to error",
			jsonLine: `{"level": "fatal"}`,
			expected: "level=error msg=header fields.level=fatal\n",
		},
		{
			name:     "extra fields",
			jsonLine: `{"level": "warning", "error": "oops", "extra": "field"}`,
			expected: "level=warning msg=header error=oops extra=field\n",
		},
		{
			name:     "empty line",
			jsonLine: "",
			expected: "",
		},
		{
			name:     "unmarshal failure falls back to info",
			jsonLine: `"`,
			expected: "level=info msg=\"header\\\"\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := &bytes.Buffer{}
			logger := newBufferLogger(actual)

			PropagateJSON(logger, []byte(tt.jsonLine), "header", time.Time{})

			assert.Equal(t, actual.String(), tt.expected)
		})
	}

	t.Run("logger level filters", func(t *testing.T) {
		actual := &bytes.Buffer{}
		logger := newBufferLogger(actual)
		logger.SetLevel(logrus.ErrorLevel)

		PropagateJSON(logger, []byte(`{"level": "warning"}`), "header", time.Time{})

		assert.Equal(t, actual.String(), "")
	})
	t.Run("timestamp is preserved", func(t *testing.T) {
		actual := &bytes.Buffer{}
		logger := newBufferLogger(actual)
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})

		PropagateJSON(logger, []byte(`{"level": "warning", "time": "2024-03-06T00:20:53-08:00"}`), "header", time.Time{})

		assert.Equal(t, actual.String(), "time=\"2024-03-06T00:20:53-08:00\" level=warning msg=header\n")
	})
	t.Run("entries before begin are dropped", func(t *testing.T) {
		actual := &bytes.Buffer{}
		logger := newBufferLogger(actual)
		begin := time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)

		PropagateJSON(logger, []byte(`{"level": "info", "time": "2023-12-01T00:00:00.0000+00:00"}`), "header", begin)

		assert.Equal(t, actual.String(), "")
	})
}
