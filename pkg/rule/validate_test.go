package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRule(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: "id: ok\nlanguage: go\nrule:\n  pattern: f($X)",
		},
		{
			name:    "missing id",
			yaml:    "language: go\nrule:\n  pattern: f()",
			wantErr: "rule ID is required",
		},
		{
			name:    "constraint on unknown metavariable",
			yaml:    "id: r\nlanguage: go\nrule:\n  pattern: f($X)\nconstraints:\n  Y: { regex: a }",
			wantErr: "constrains unknown metavariable Y",
		},
		{
			name:    "label on unknown metavariable",
			yaml:    "id: r\nlanguage: go\nrule:\n  pattern: f($X)\nlabels:\n  Z: secondary",
			wantErr: "labels unknown metavariable Z",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewLoader().ParseOne([]byte(tt.yaml))
			require.NoError(t, err)

			err = ValidateRule(r)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRule_Nil(t *testing.T) {
	err := ValidateRule(nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule is nil")
}

func TestCheckExamples_Pass(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
rule:
  pattern: console.log($$$ARGS)
examples:
  - console.log("x")
  - if (debug) { console.log(a, b) }
negativeExamples:
  - logger.debug("x")
  - console.error("x")
`)

	assert.NoError(t, CheckExamples(r))
}

func TestCheckExamples_ExampleDoesNotMatch(t *testing.T) {
	r := testRule(t, `
id: r
language: go
rule:
  pattern: foo()
examples:
  - bar()
`)

	err := CheckExamples(r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "example 0 did not match")
}

func TestCheckExamples_NegativeExampleMatches(t *testing.T) {
	r := testRule(t, `
id: r
language: go
rule:
  pattern: foo()
negativeExamples:
  - x := foo()
`)

	err := CheckExamples(r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative example 0 matched")
}
