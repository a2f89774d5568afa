package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetRulesFlags() {
	rulesRuleFile = ""
	rulesRuleDir = ""
	rulesFormat = "table"
	colorMode = "never"
}

func TestRunRulesList_Table(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleFixRuleYAML+`---
id: no-debugger
language: javascript
severity: error
message: remove debugger statements
rule:
  pattern: debugger
`)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesList(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "no-console-log")
	assert.Contains(t, out, "no-debugger")
	assert.Contains(t, out, "javascript")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "avoid console.log")
}

func TestRunRulesList_JSON(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleFixRuleYAML)
	rulesFormat = "json"

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesList(cmd, nil))

	var listings []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "no-console-log", listings[0]["id"])
	assert.Equal(t, "javascript", listings[0]["language"])
	assert.Equal(t, "warning", listings[0]["severity"])
	assert.Equal(t, "avoid console.log", listings[0]["message"])
	assert.Equal(t, true, listings[0]["hasFix"])
}

func TestRunRulesList_UnknownFormat(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleRuleYAML)
	rulesFormat = "xml"

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	err := runRulesList(cmd, nil)
	assert.ErrorContains(t, err, "unknown output format: xml")
}

func TestRunRulesValidate_Pass(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleRuleYAML+`examples:
  - console.log(x)
negativeExamples:
  - logger.debug(x)
`)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesValidate(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "ok   no-console-log")
	assert.Contains(t, out, "1 rules valid")
}

func TestRunRulesValidate_NegativeExampleMatches(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleRuleYAML+`negativeExamples:
  - console.log(y)
`)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runRulesValidate(cmd, nil)
	assert.ErrorContains(t, err, "1 of 1 rules failed validation")
	assert.Contains(t, buf.String(), "FAIL no-console-log")
	assert.Contains(t, buf.String(), "negative example 0 matched")
}

func TestRunRulesValidate_ExampleDoesNotMatch(t *testing.T) {
	resetRulesFlags()
	rulesRuleFile = writeRuleFile(t, consoleRuleYAML+`examples:
  - logger.debug(x)
`)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runRulesValidate(cmd, nil)
	assert.ErrorContains(t, err, "failed validation")
	assert.Contains(t, buf.String(), "example 0 did not match")
}

func TestRunRulesList_RequiresRuleSource(t *testing.T) {
	resetRulesFlags()

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	err := runRulesList(cmd, nil)
	assert.ErrorContains(t, err, "either --rule or --config is required")
}
