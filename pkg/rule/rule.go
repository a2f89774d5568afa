// Package rule loads and evaluates YAML-defined search rules.
//
// A rule wraps a compiled pattern with an identity, a severity, a message
// template, optional metavariable constraints, an optional fix template and
// optional label assignments. Rules are evaluated against documents; the
// resulting matches carry everything the reporting layer needs.
package rule

import (
	"fmt"
	"strings"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Rule is a compiled search rule.
type Rule struct {
	ID       string
	Language lang.Language
	Severity types.Severity
	Message  string
	Note     string
	Pattern  *pattern.Pattern

	// Fix is the rewrite template. nil means the rule has no fix; an empty
	// string is a valid fix that deletes the match.
	Fix *string

	// Constraints filter matches by metavariable text, keyed by name.
	Constraints map[string]*Constraint

	// Labels assigns bound metavariables to label categories, keyed by name.
	Labels map[string]string

	Examples         []string
	NegativeExamples []string
}

// Matches runs the rule over a document. Matches that fail a constraint are
// dropped; surviving matches get their labels attached in pattern order.
func (r *Rule) Matches(doc *pattern.Doc) ([]*pattern.NodeMatch, error) {
	var out []*pattern.NodeMatch
	for m := range r.Pattern.MatchAll(doc) {
		keep, err := r.satisfiesConstraints(m)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		if !keep {
			continue
		}
		r.attachLabels(m)
		out = append(out, m)
	}
	return out, nil
}

func (r *Rule) satisfiesConstraints(m *pattern.NodeMatch) (bool, error) {
	for name, c := range r.Constraints {
		text, bound := boundText(m.Env(), name)
		if !bound {
			continue
		}
		ok, err := c.Match(text)
		if err != nil {
			return false, fmt.Errorf("constraint %s: %w", name, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// attachLabels walks metavariables in pattern order so label order is
// stable across runs.
func (r *Rule) attachLabels(m *pattern.NodeMatch) {
	if len(r.Labels) == 0 {
		return
	}
	env := m.Env()
	for _, name := range r.Pattern.VarNames() {
		category, labeled := r.Labels[name]
		if !labeled {
			continue
		}
		if n, ok := env.Match(name); ok {
			env.AddLabel(category, n)
			continue
		}
		if ns, ok := env.MultiMatches(name); ok {
			for _, n := range ns {
				env.AddLabel(category, n)
			}
		}
	}
}

// RenderMessage interpolates metavariable references in the rule message
// with the text bound by the match.
func (r *Rule) RenderMessage(m *pattern.NodeMatch) string {
	return interpolate(r.Message, m.Env())
}

// FixFor renders the fix template for a match. The second return is false
// when the rule has no fix.
func (r *Rule) FixFor(m *pattern.NodeMatch) (string, bool) {
	if r.Fix == nil {
		return "", false
	}
	return interpolate(*r.Fix, m.Env()), true
}

// Render interpolates a standalone rewrite template against a match. It
// uses the same $NAME and $$$NAME substitution as rule fix templates.
func Render(template string, m *pattern.NodeMatch) string {
	return interpolate(template, m.Env())
}

// interpolate substitutes $NAME and $$$NAME references in a template with
// bound match text. Unbound references are left verbatim.
func interpolate(template string, env *pattern.Env) string {
	var b strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '$' {
			b.WriteByte(template[i])
			i++
			continue
		}
		j := i
		for j < len(template) && template[j] == '$' {
			j++
		}
		k := j
		for k < len(template) && isVarByte(template[k]) {
			k++
		}
		name, dollars := template[j:k], j-i
		if text, ok := lookupVar(env, name, dollars); ok {
			b.WriteString(text)
		} else {
			b.WriteString(template[i:k])
		}
		i = k
	}
	return b.String()
}

func lookupVar(env *pattern.Env, name string, dollars int) (string, bool) {
	if name == "" {
		return "", false
	}
	switch dollars {
	case 1:
		if n, ok := env.Match(name); ok {
			return n.Text(), true
		}
	case 3:
		if ns, ok := env.MultiMatches(name); ok {
			return multiText(ns), true
		}
	}
	return "", false
}

// multiText returns the raw source run covered by a multi binding, commas
// and all, so fix templates reproduce argument lists faithfully.
func multiText(ns []pattern.Node) string {
	if len(ns) == 0 {
		return ""
	}
	content := ns[0].Doc().Content()
	start := ns[0].Span().Start
	end := ns[len(ns)-1].Span().End
	return string(content[start:end])
}

func boundText(env *pattern.Env, name string) (string, bool) {
	if n, ok := env.Match(name); ok {
		return n.Text(), true
	}
	if ns, ok := env.MultiMatches(name); ok {
		return multiText(ns), true
	}
	return "", false
}

func isVarByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
