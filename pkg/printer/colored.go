package printer

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// styles holds the color formatters for human-readable output.
type styles struct {
	file     *color.Color
	match    *color.Color
	ruleID   *color.Color
	message  *color.Color
	note     *color.Color
	deleted  *color.Color
	inserted *color.Color
	errSev   *color.Color
	warnSev  *color.Color
	infoSev  *color.Color
	hintSev  *color.Color
}

// newStyles creates the formatters. enabled forces color on or off for this
// printer regardless of TTY detection, so --color always works into pipes.
func newStyles(enabled bool) *styles {
	s := &styles{
		file:     color.New(color.FgHiBlue),
		match:    color.New(color.FgYellow),
		ruleID:   color.New(color.FgHiGreen),
		message:  color.New(color.Bold),
		note:     color.New(color.Faint),
		deleted:  color.New(color.FgRed),
		inserted: color.New(color.FgGreen),
		errSev:   color.New(color.Bold, color.FgHiRed),
		warnSev:  color.New(color.Bold, color.FgYellow),
		infoSev:  color.New(color.Bold, color.FgHiBlue),
		hintSev:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{
		s.file, s.match, s.ruleID, s.message, s.note,
		s.deleted, s.inserted, s.errSev, s.warnSev, s.infoSev, s.hintSev,
	} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *styles) severity(v types.Severity) *color.Color {
	switch v {
	case types.SeverityError:
		return s.errSev
	case types.SeverityWarning:
		return s.warnSev
	case types.SeverityInfo:
		return s.infoSev
	default:
		return s.hintSev
	}
}

// ColoredPrinter renders matches as human-readable, optionally colored
// text. Like JSONPrinter it writes each batch under one lock acquisition,
// so concurrent producers never interleave within a batch.
type ColoredPrinter struct {
	mu  sync.Mutex
	out io.Writer
	s   *styles
}

var _ Printer = (*ColoredPrinter)(nil)

// NewColored creates a printer writing to out. enabled controls whether
// color escapes are emitted.
func NewColored(out io.Writer, enabled bool) *ColoredPrinter {
	return &ColoredPrinter{out: out, s: newStyles(enabled)}
}

// BeforePrint is a no-op; human output has no framing.
func (p *ColoredPrinter) BeforePrint() error { return nil }

// AfterPrint is a no-op.
func (p *ColoredPrinter) AfterPrint() error { return nil }

// PrintMatches prints one batch of pattern matches found in a file.
func (p *ColoredPrinter) PrintMatches(matches iter.Seq[*pattern.NodeMatch], path string) error {
	return printBatch(p, matches, func(m *pattern.NodeMatch) error {
		return p.printMatch(m, path)
	})
}

// PrintRule prints one batch of matches produced by a rule, with a
// severity-colored diagnostic header per match.
func (p *ColoredPrinter) PrintRule(matches iter.Seq[*pattern.NodeMatch], path string, r *rule.Rule) error {
	return printBatch(p, matches, func(m *pattern.NodeMatch) error {
		if err := p.printRuleHeader(m, r); err != nil {
			return err
		}
		return p.printMatch(m, path)
	})
}

// PrintDiffs prints one batch of rewrites as removed and inserted lines.
func (p *ColoredPrinter) PrintDiffs(diffs iter.Seq[Diff], path string) error {
	return printBatch(p, diffs, func(d Diff) error {
		return p.printDiff(d, path)
	})
}

// PrintRuleDiffs prints one batch of rule-driven rewrites.
func (p *ColoredPrinter) PrintRuleDiffs(diffs iter.Seq[Diff], path string, r *rule.Rule) error {
	return printBatch(p, diffs, func(d Diff) error {
		if err := p.printRuleHeader(d.NodeMatch, r); err != nil {
			return err
		}
		return p.printDiff(d, path)
	})
}

// PrintRuleRecords renders stored rule matches, so a report can replay a
// datastore with the same styling as a live scan. Records carrying a
// replacement render as diffs.
func (p *ColoredPrinter) PrintRuleRecords(records iter.Seq[types.RuleMatchRecord]) error {
	return printBatch(p, records, p.printRuleRecord)
}

func (p *ColoredPrinter) printRuleRecord(rec types.RuleMatchRecord) error {
	sev := p.s.severity(rec.Severity)
	_, err := fmt.Fprintf(p.out, "%s[%s]: %s\n",
		sev.Sprint(rec.Severity.String()),
		p.s.ruleID.Sprint(rec.RuleID),
		p.s.message.Sprint(rec.Message))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	pos := rec.Range.Start
	if _, err := fmt.Fprintf(p.out, "%s:%d:%d\n", p.s.file.Sprint(rec.File), pos.Line+1, pos.Column+1); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if rec.Replacement == nil {
		return p.printLines(rec.Text, p.s.match, "  ")
	}
	if err := p.printLines(rec.Text, p.s.deleted, "- "); err != nil {
		return err
	}
	if *rec.Replacement == "" {
		return nil
	}
	return p.printLines(*rec.Replacement, p.s.inserted, "+ ")
}

// printBatch peeks for emptiness, then renders the whole batch under the
// lock. Empty batches produce no output at all.
func printBatch[T any](p *ColoredPrinter, items iter.Seq[T], render func(T) error) error {
	next, stop := iter.Pull(items)
	defer stop()
	item, ok := next()
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for ok {
		if err := render(item); err != nil {
			return err
		}
		item, ok = next()
	}
	return nil
}

func (p *ColoredPrinter) printMatch(m *pattern.NodeMatch, path string) error {
	if err := p.printLocation(m, path); err != nil {
		return err
	}
	return p.printLines(m.Text(), p.s.match, "  ")
}

func (p *ColoredPrinter) printRuleHeader(m *pattern.NodeMatch, r *rule.Rule) error {
	sev := p.s.severity(r.Severity)
	_, err := fmt.Fprintf(p.out, "%s[%s]: %s\n",
		sev.Sprint(r.Severity.String()),
		p.s.ruleID.Sprint(r.ID),
		p.s.message.Sprint(r.RenderMessage(m)))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if r.Note != "" {
		if _, err := fmt.Fprintf(p.out, "%s\n", p.s.note.Sprintf("note: %s", r.Note)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func (p *ColoredPrinter) printDiff(d Diff, path string) error {
	if err := p.printLocation(d.NodeMatch, path); err != nil {
		return err
	}
	if err := p.printLines(d.NodeMatch.Text(), p.s.deleted, "- "); err != nil {
		return err
	}
	if d.Replacement == "" {
		return nil
	}
	return p.printLines(d.Replacement, p.s.inserted, "+ ")
}

// printLocation writes path:line:column with one-based positions; the JSON
// wire stays zero-based, humans count from one.
func (p *ColoredPrinter) printLocation(m *pattern.NodeMatch, path string) error {
	pos := m.Range().Start
	_, err := fmt.Fprintf(p.out, "%s:%d:%d\n", p.s.file.Sprint(path), pos.Line+1, pos.Column+1)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (p *ColoredPrinter) printLines(text string, c *color.Color, prefix string) error {
	for _, line := range strings.Split(text, "\n") {
		if _, err := fmt.Fprintf(p.out, "%s%s\n", prefix, c.Sprint(line)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
