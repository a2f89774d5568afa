package printer

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

func TestColoredPrinter_PlainMatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, false)

	require.NoError(t, p.BeforePrint())
	require.NoError(t, p.PrintMatches(slices.Values(matchSeq(t, "console.log($MSG)", "console.log(x)\n")), "src/app.js"))
	require.NoError(t, p.AfterPrint())

	assert.Equal(t, "src/app.js:1:1\n  console.log(x)\n", buf.String())
}

func TestColoredPrinter_OneBasedPositions(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, false)

	require.NoError(t, p.PrintMatches(slices.Values(matchSeq(t, "console.log($MSG)", "let a\nconsole.log(b)\n")), "src/app.js"))

	assert.Equal(t, "src/app.js:2:1\n  console.log(b)\n", buf.String())
}

func TestColoredPrinter_MultilineMatchIndented(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, false)

	require.NoError(t, p.PrintMatches(slices.Values(matchSeq(t, "foo($$$ARGS)", "foo(\n  1,\n  2)\n")), "src/app.js"))

	assert.Equal(t, "src/app.js:1:1\n  foo(\n    1,\n    2)\n", buf.String())
}

func TestColoredPrinter_RuleHeader(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
severity: warning
message: avoid console.log; logging $MSG
note: drop console statements before shipping
rule:
  pattern: console.log($MSG)
`)
	doc := pattern.NewDoc([]byte("console.log(user.name)\n"), lang.JavaScript)
	ms, err := r.Matches(doc)
	require.NoError(t, err)
	require.Len(t, ms, 1)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintRule(slices.Values(ms), "src/app.js", r))

	want := "warning[no-console-log]: avoid console.log; logging user.name\n" +
		"note: drop console statements before shipping\n" +
		"src/app.js:1:1\n" +
		"  console.log(user.name)\n"
	assert.Equal(t, want, buf.String())
}

func TestColoredPrinter_RuleHeaderWithoutNote(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
severity: error
message: avoid console.log
rule:
  pattern: console.log($MSG)
`)
	doc := pattern.NewDoc([]byte("console.log(x)\n"), lang.JavaScript)
	ms, err := r.Matches(doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintRule(slices.Values(ms), "src/app.js", r))

	assert.Equal(t, "error[no-console-log]: avoid console.log\nsrc/app.js:1:1\n  console.log(x)\n", buf.String())
}

func TestColoredPrinter_Diff(t *testing.T) {
	ms := matchSeq(t, "console.log($MSG)", "console.log(x)\n")
	require.Len(t, ms, 1)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	diffs := []Diff{{NodeMatch: ms[0], Replacement: "logger.debug(x)"}}
	require.NoError(t, p.PrintDiffs(slices.Values(diffs), "src/app.js"))

	assert.Equal(t, "src/app.js:1:1\n- console.log(x)\n+ logger.debug(x)\n", buf.String())
}

func TestColoredPrinter_DeletingDiffHasNoInsertedLine(t *testing.T) {
	ms := matchSeq(t, "console.log($MSG)", "console.log(x)\n")
	require.Len(t, ms, 1)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintDiffs(slices.Values([]Diff{{NodeMatch: ms[0], Replacement: ""}}), "src/app.js"))

	assert.Equal(t, "src/app.js:1:1\n- console.log(x)\n", buf.String())
}

func TestColoredPrinter_RuleDiff(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
severity: warning
message: avoid console.log
rule:
  pattern: console.log($MSG)
fix: logger.debug($MSG)
`)
	doc := pattern.NewDoc([]byte("console.log(x)\n"), lang.JavaScript)
	ms, err := r.Matches(doc)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	fix, ok := r.FixFor(ms[0])
	require.True(t, ok)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintRuleDiffs(slices.Values([]Diff{{NodeMatch: ms[0], Replacement: fix}}), "src/app.js", r))

	want := "warning[no-console-log]: avoid console.log\n" +
		"src/app.js:1:1\n" +
		"- console.log(x)\n" +
		"+ logger.debug(x)\n"
	assert.Equal(t, want, buf.String())
}

func TestColoredPrinter_EmptyBatchPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, false)

	require.NoError(t, p.BeforePrint())
	require.NoError(t, p.PrintMatches(slices.Values([]*pattern.NodeMatch(nil)), "src/app.js"))
	require.NoError(t, p.AfterPrint())

	assert.Empty(t, buf.String())
}

func TestColoredPrinter_RuleRecordReplay(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
severity: warning
message: avoid console.log
rule:
  pattern: console.log($MSG)
`)
	ms, err := r.Matches(pattern.NewDoc([]byte("console.log(x)\n"), lang.JavaScript))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	rec := NewRuleMatchRecord(ms[0], "src/app.js", r)

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintRuleRecords(slices.Values([]types.RuleMatchRecord{rec})))

	assert.Equal(t, "warning[no-console-log]: avoid console.log\nsrc/app.js:1:1\n  console.log(x)\n", buf.String())
}

func TestColoredPrinter_RuleRecordWithReplacementRendersDiff(t *testing.T) {
	r := testRule(t, `
id: no-console-log
language: javascript
severity: warning
message: avoid console.log
rule:
  pattern: console.log($MSG)
fix: logger.debug($MSG)
`)
	ms, err := r.Matches(pattern.NewDoc([]byte("console.log(x)\n"), lang.JavaScript))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	rec := NewRuleMatchRecord(ms[0], "src/app.js", r)
	fix, ok := r.FixFor(ms[0])
	require.True(t, ok)
	rec.Replacement = &fix

	var buf bytes.Buffer
	p := NewColored(&buf, false)
	require.NoError(t, p.PrintRuleRecords(slices.Values([]types.RuleMatchRecord{rec})))

	want := "warning[no-console-log]: avoid console.log\n" +
		"src/app.js:1:1\n" +
		"- console.log(x)\n" +
		"+ logger.debug(x)\n"
	assert.Equal(t, want, buf.String())
}

func TestColoredPrinter_ColorForcedIntoBuffer(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, true)

	require.NoError(t, p.PrintMatches(slices.Values(matchSeq(t, "console.log($MSG)", "console.log(x)\n")), "src/app.js"))

	assert.Contains(t, buf.String(), "\x1b[", "enabled color must emit escapes even off-TTY")
}

func TestColoredPrinter_DisabledColorHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	p := NewColored(&buf, false)

	require.NoError(t, p.PrintMatches(slices.Values(matchSeq(t, "console.log($MSG)", "console.log(x)\n")), "src/app.js"))

	assert.NotContains(t, buf.String(), "\x1b[")
}
