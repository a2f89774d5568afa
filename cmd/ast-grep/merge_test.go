package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/store"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

func mergeRecord(file, ruleID string) types.RuleMatchRecord {
	return types.RuleMatchRecord{
		MatchRecord: types.MatchRecord{
			Text:     "console.log(x)",
			Range:    types.Range{ByteOffset: types.ByteSpan{Start: 0, End: 14}},
			File:     file,
			Language: lang.JavaScript,
		},
		RuleID:   ruleID,
		Severity: types.SeverityWarning,
		Message:  "avoid console.log",
	}
}

func newSourceDB(t *testing.T, records ...types.RuleMatchRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")
	s, err := store.NewSQLite(path)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, s.AddRuleMatch(rec))
	}
	require.NoError(t, s.Close())
	return path
}

func TestRunMerge_CombinesDatastores(t *testing.T) {
	source1 := newSourceDB(t, mergeRecord("a.js", "r1"))
	source2 := newSourceDB(t, mergeRecord("b.js", "r2"))
	mergeOutput = filepath.Join(t.TempDir(), "merged.db")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runMerge(cmd, []string{source1, source2}))

	out := buf.String()
	assert.Contains(t, out, "Merge complete")
	assert.Contains(t, out, "Sources processed: 2")
	assert.Contains(t, out, "Matches merged: 2")
	assert.Contains(t, out, "Duplicates skipped: 0")
	assert.Contains(t, out, "Output: "+mergeOutput)

	dest, err := store.NewSQLite(mergeOutput)
	require.NoError(t, err)
	defer dest.Close()

	count, err := dest.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunMerge_ReportsDeduplication(t *testing.T) {
	// Both shards saw the same match
	source1 := newSourceDB(t, mergeRecord("a.js", "r1"))
	source2 := newSourceDB(t, mergeRecord("a.js", "r1"))
	mergeOutput = filepath.Join(t.TempDir(), "merged.db")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runMerge(cmd, []string{source1, source2}))

	out := buf.String()
	assert.Contains(t, out, "Matches merged: 1")
	assert.Contains(t, out, "Duplicates skipped: 1")
}

func TestRunMerge_FailsWithMissingSource(t *testing.T) {
	mergeOutput = filepath.Join(t.TempDir(), "merged.db")

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	err := runMerge(cmd, []string{filepath.Join(t.TempDir(), "absent.db")})
	assert.ErrorContains(t, err, "merging datastores")
}

func TestMergeCmd_RequiresSource(t *testing.T) {
	err := mergeCmd.Args(mergeCmd, []string{})
	assert.ErrorContains(t, err, "requires at least 1 arg")
}
