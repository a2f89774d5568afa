package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// labelCategory is the one label category surfaced on the wire.
const labelCategory = "secondary"

// JSONPrinter streams matches as one JSON array without ever holding the
// full result set.
//
// Shared state is two words: a mutex serializing writers and a flag
// recording whether any record has been written. A whole batch is encoded
// under one lock acquisition, so records from concurrent producers never
// interleave; the flag decides whether a batch's first record needs a
// leading comma.
type JSONPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	matched atomic.Bool
}

var _ Printer = (*JSONPrinter)(nil)

// NewJSON creates a printer writing to out.
func NewJSON(out io.Writer) *JSONPrinter {
	return &JSONPrinter{out: out}
}

// NewJSONStdout creates a printer writing to standard output.
func NewJSONStdout() *JSONPrinter {
	return NewJSON(os.Stdout)
}

// BeforePrint opens the array. Call it once, before any batch.
func (p *JSONPrinter) BeforePrint() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write("[")
}

// AfterPrint closes the array. Call it once, after all batches finished.
// An empty run produces exactly "[]".
func (p *JSONPrinter) AfterPrint() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.matched.Load() {
		if err := p.write("\n"); err != nil {
			return err
		}
	}
	return p.write("]\n")
}

// PrintMatches prints one batch of pattern matches found in a file.
func (p *JSONPrinter) PrintMatches(matches iter.Seq[*pattern.NodeMatch], path string) error {
	return printDocs(p, mapSeq(matches, func(m *pattern.NodeMatch) types.MatchRecord {
		return NewMatchRecord(m, path)
	}))
}

// PrintRule prints one batch of matches produced by a rule.
func (p *JSONPrinter) PrintRule(matches iter.Seq[*pattern.NodeMatch], path string, r *rule.Rule) error {
	return printDocs(p, mapSeq(matches, func(m *pattern.NodeMatch) types.RuleMatchRecord {
		return NewRuleMatchRecord(m, path, r)
	}))
}

// PrintDiffs prints one batch of rewrites as records carrying their
// replacement text.
func (p *JSONPrinter) PrintDiffs(diffs iter.Seq[Diff], path string) error {
	return printDocs(p, mapSeq(diffs, func(d Diff) types.MatchRecord {
		rec := NewMatchRecord(d.NodeMatch, path)
		repl := d.Replacement
		rec.Replacement = &repl
		return rec
	}))
}

// PrintRuleDiffs prints one batch of rule-driven rewrites.
func (p *JSONPrinter) PrintRuleDiffs(diffs iter.Seq[Diff], path string, r *rule.Rule) error {
	return printDocs(p, mapSeq(diffs, func(d Diff) types.RuleMatchRecord {
		rec := NewRuleMatchRecord(d.NodeMatch, path, r)
		repl := d.Replacement
		rec.Replacement = &repl
		return rec
	}))
}

// PrintMatchRecords replays already-built match records, for example from a
// datastore. Shares the streaming core with the match operations.
func (p *JSONPrinter) PrintMatchRecords(records iter.Seq[types.MatchRecord]) error {
	return printDocs(p, records)
}

// PrintRuleRecords replays already-built rule match records.
func (p *JSONPrinter) PrintRuleRecords(records iter.Seq[types.RuleMatchRecord]) error {
	return printDocs(p, records)
}

// printDocs streams one batch of records. An empty batch returns before any
// side effect, leaving state untouched. Otherwise the batch is written
// under the lock: the first record is preceded by "\n" when it is the first
// record overall and ",\n" when not, every later record by ",\n".
func printDocs[T any](p *JSONPrinter, docs iter.Seq[T]) error {
	next, stop := iter.Pull(docs)
	defer stop()
	doc, ok := next()
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sep := "\n"
	if p.matched.Swap(true) {
		sep = ",\n"
	}
	for ok {
		if err := p.writeDoc(sep, doc); err != nil {
			return err
		}
		sep = ",\n"
		doc, ok = next()
	}
	return nil
}

func (p *JSONPrinter) writeDoc(sep string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := p.write(sep); err != nil {
		return err
	}
	if _, err := p.out.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (p *JSONPrinter) write(s string) error {
	if _, err := io.WriteString(p.out, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// mapSeq lazily transforms a sequence, so records are built only as the
// batch streams.
func mapSeq[T, U any](seq iter.Seq[T], f func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range seq {
			if !yield(f(v)) {
				return
			}
		}
	}
}

// NewMatchRecord builds the wire record for one match.
func NewMatchRecord(m *pattern.NodeMatch, path string) types.MatchRecord {
	return types.MatchRecord{
		Text:          m.Text(),
		Range:         m.Range(),
		File:          path,
		Language:      m.Lang(),
		MetaVariables: metaVariablesFrom(m.Env()),
	}
}

// NewRuleMatchRecord builds the wire record for one rule match, rendering
// the rule's message against the match bindings.
func NewRuleMatchRecord(m *pattern.NodeMatch, path string, r *rule.Rule) types.RuleMatchRecord {
	return types.RuleMatchRecord{
		MatchRecord: NewMatchRecord(m, path),
		RuleID:      r.ID,
		Severity:    r.Severity,
		Message:     r.RenderMessage(m),
		Labels:      labelNodes(m.Env()),
	}
}

// metaVariablesFrom converts an env's bindings to the wire shape. Returns
// nil when the match bound nothing, so the field is omitted entirely;
// otherwise both maps are allocated and marshal as objects, never null.
func metaVariablesFrom(env *pattern.Env) *types.MetaVariables {
	vars := env.Vars()
	if len(vars) == 0 {
		return nil
	}
	mv := types.NewMetaVariables()
	for _, v := range vars {
		switch v.Kind {
		case pattern.VarSingle:
			n, ok := env.Match(v.Name)
			if !ok {
				panic(fmt.Sprintf("metavariable %s must exist", v.Name))
			}
			mv.Single[v.Name] = textNode(n)
		case pattern.VarMulti:
			ns, _ := env.MultiMatches(v.Name)
			nodes := make([]types.TextNode, 0, len(ns))
			for _, n := range ns {
				nodes = append(nodes, textNode(n))
			}
			mv.Multi[v.Name] = nodes
		}
	}
	return mv
}

// labelNodes converts the match's secondary labels to the wire shape, in
// attachment order, or nil when none were attached.
func labelNodes(env *pattern.Env) []types.TextNode {
	labels := env.Labels(labelCategory)
	if len(labels) == 0 {
		return nil
	}
	nodes := make([]types.TextNode, 0, len(labels))
	for _, n := range labels {
		nodes = append(nodes, textNode(n))
	}
	return nodes
}

func textNode(n pattern.Node) types.TextNode {
	return types.TextNode{Text: n.Text(), Range: n.Range()}
}
