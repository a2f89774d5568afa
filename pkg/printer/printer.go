// Package printer renders streams of matches as JSON or human-readable
// text.
//
// Producers for different files may call the batch operations from separate
// goroutines between one BeforePrint/AfterPrint pair. Every printer keeps
// each batch contiguous in its output.
package printer

import (
	"iter"
	"sort"

	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/rule"
)

// Printer consumes match batches and renders them to an output.
// Batch operations are safe for concurrent use. BeforePrint and AfterPrint
// bracket all batches and are sequenced by the caller.
type Printer interface {
	PrintMatches(matches iter.Seq[*pattern.NodeMatch], path string) error
	PrintRule(matches iter.Seq[*pattern.NodeMatch], path string, r *rule.Rule) error
	PrintDiffs(diffs iter.Seq[Diff], path string) error
	PrintRuleDiffs(diffs iter.Seq[Diff], path string, r *rule.Rule) error
	BeforePrint() error
	AfterPrint() error
}

// Diff pairs a match with the replacement its rewrite produced.
type Diff struct {
	NodeMatch   *pattern.NodeMatch
	Replacement string
}

// Apply splices diff replacements into content and returns the rewritten
// bytes. Diffs must not overlap. Application runs in descending offset
// order so earlier offsets stay valid while splicing.
func Apply(content []byte, diffs []Diff) []byte {
	ds := make([]Diff, len(diffs))
	copy(ds, diffs)
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].NodeMatch.Span().Start > ds[j].NodeMatch.Span().Start
	})

	out := append([]byte(nil), content...)
	for _, d := range ds {
		span := d.NodeMatch.Span()
		var buf []byte
		buf = append(buf, out[:span.Start]...)
		buf = append(buf, d.Replacement...)
		buf = append(buf, out[span.End:]...)
		out = buf
	}
	return out
}
