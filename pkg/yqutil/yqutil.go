// SPDX-FileCopyrightText: Copyright The Metasploit MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package yqutil applies yq expressions to stack.yaml content. Comments
// and blank lines survive the round trip, so `update --set` edits do not
// clobber a hand-annotated config.
package yqutil

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mikefarah/yq/v4/pkg/yqlib"
	"github.com/sirupsen/logrus"
	logging "gopkg.in/op/go-logging.v1"

	"github.com/sideffect263/metasploit-mcp/pkg/yamlutil"
)

// Join combines the expressions of repeated --set flags into a single
// yq program.
func Join(expressions []string) string {
	return strings.Join(expressions, " | ")
}

// ValidateContent checks that content parses as YAML, without modifying
// or returning it.
func ValidateContent(content []byte) error {
	_, err := evaluate(".", content)
	return err
}

// EvaluateExpression evaluates the yq expression against content, and
// returns the modified YAML.
func EvaluateExpression(expression string, content []byte) ([]byte, error) {
	if strings.TrimSpace(expression) == "" {
		return content, nil
	}
	logrus.Debugf("Evaluating yq expression: %q", expression)
	formatter, err := yamlutil.NewFormatter()
	if err != nil {
		return nil, err
	}
	// protect blank lines from the yq encoder
	pre, err := formatter.Before(content)
	if err != nil {
		return nil, err
	}
	out, err := evaluate(expression, pre)
	if err != nil {
		return nil, err
	}
	return formatter.Format(out)
}

// EvaluateExpressionWithEncoder evaluates the yq expression against
// content with the caller's encoder, e.g. a colored JSON encoder for
// `info --yq`.
func EvaluateExpressionWithEncoder(expression, content string, encoder yqlib.Encoder) (string, error) {
	if strings.TrimSpace(expression) == "" {
		return content, nil
	}
	logrus.Debugf("Evaluating yq expression: %q", expression)
	memory := logging.NewMemoryBackend(0)
	backend := logging.AddModuleLevel(memory)
	logging.SetBackend(backend)
	yqlib.InitExpressionParser()
	expressionNode, err := yqlib.ExpressionParser.ParseExpression(expression)
	if err != nil {
		replayLog(memory)
		return "", err
	}
	out := new(bytes.Buffer)
	printer := yqlib.NewPrinter(encoder, yqlib.NewSinglePrinterWriter(out))
	decoder := yqlib.NewYamlDecoder(yqlib.ConfiguredYamlPreferences)
	streamEvaluator := yqlib.NewStreamEvaluator()
	if _, err := streamEvaluator.Evaluate("msfmcpctl", strings.NewReader(content), expressionNode, printer, decoder); err != nil {
		replayLog(memory)
		return "", err
	}
	return out.String(), nil
}

func evaluate(expression string, content []byte) ([]byte, error) {
	tmpYAMLFile, err := os.CreateTemp("", "msfmcp-yq-*.yaml")
	if err != nil {
		return nil, err
	}
	tmpYAMLPath := tmpYAMLFile.Name()
	_ = tmpYAMLFile.Close()
	defer os.RemoveAll(tmpYAMLPath)
	if err := os.WriteFile(tmpYAMLPath, content, 0o600); err != nil {
		return nil, err
	}

	// yqlib logs through go-logging; buffer the records and replay them
	// through logrus only when the evaluation fails.
	memory := logging.NewMemoryBackend(0)
	backend := logging.AddModuleLevel(memory)
	logging.SetBackend(backend)
	yqlib.InitExpressionParser()

	encoderPrefs := yqlib.ConfiguredYamlPreferences.Copy()
	encoderPrefs.Indent = 2
	encoderPrefs.ColorsEnabled = false
	encoder := yqlib.NewYamlEncoder(encoderPrefs)
	out := new(bytes.Buffer)
	printer := yqlib.NewPrinter(encoder, yqlib.NewSinglePrinterWriter(out))
	decoder := yqlib.NewYamlDecoder(yqlib.ConfiguredYamlPreferences)

	streamEvaluator := yqlib.NewStreamEvaluator()
	files := []string{tmpYAMLPath}
	if err := streamEvaluator.EvaluateFiles(expression, files, printer, decoder); err != nil {
		replayLog(memory)
		return nil, err
	}
	return out.Bytes(), nil
}

// replayLog forwards the records yqlib wrote to the go-logging memory
// backend into logrus. Called only on evaluation failure.
func replayLog(memory *logging.MemoryBackend) {
	logger := logrus.StandardLogger()
	for node := memory.Head(); node != nil; node = node.Next() {
		entry := logrus.NewEntry(logger).WithTime(node.Record.Time)
		message := fmt.Sprintf("[%s] %s", node.Record.Module, node.Record.Message())
		switch node.Record.Level {
		case logging.CRITICAL, logging.ERROR:
			entry.Error(message)
		case logging.WARNING:
			entry.Warn(message)
		case logging.NOTICE, logging.INFO:
			entry.Info(message)
		case logging.DEBUG:
			entry.Debug(message)
		}
	}
}
