package pattern

import (
	"fmt"
	"iter"
	"strings"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

type elemKind int

const (
	elemLiteral elemKind = iota
	elemSingle
	elemMulti
)

type element struct {
	kind elemKind
	name string // empty for literals and anonymous metavariables
	text string // literal token text
}

// Pattern is a compiled structural search pattern.
// A Pattern is immutable and safe for concurrent use.
type Pattern struct {
	source   string
	language lang.Language
	elems    []element
}

// Compile parses pattern source into a matchable Pattern. The pattern is
// tokenized with the same lexer as documents of the given language, so
// whitespace and comments in the pattern are insignificant.
func Compile(source string, language lang.Language) (*Pattern, error) {
	content := []byte(source)
	toks := tokenize(content, language)
	if len(toks) == 0 {
		return nil, fmt.Errorf("pattern %q has no tokens", source)
	}
	elems := make([]element, 0, len(toks))
	for _, t := range toks {
		text := t.text(content)
		if t.kind == tokenWord && strings.HasPrefix(text, "$") {
			if el, ok := metaElement(text); ok {
				elems = append(elems, el)
				continue
			}
		}
		elems = append(elems, element{kind: elemLiteral, text: text})
	}
	return &Pattern{source: source, language: language, elems: elems}, nil
}

// metaElement classifies a $-prefixed word token. $NAME binds one unit,
// $$$NAME binds a run; $_ and $$$ are anonymous. Names are UPPER_SNAKE, so
// identifiers like jQuery's $el stay literal.
func metaElement(text string) (element, bool) {
	kind := elemSingle
	name := text[1:]
	switch {
	case strings.HasPrefix(name, "$$"):
		kind = elemMulti
		name = name[2:]
	case strings.HasPrefix(name, "$"):
		return element{}, false
	}
	switch {
	case name == "" && kind == elemMulti:
		return element{kind: kind}, true
	case name == "":
		return element{}, false
	case strings.HasPrefix(name, "_"):
		return element{kind: kind}, true
	case isMetaName(name):
		return element{kind: kind, name: name}, true
	}
	return element{}, false
}

func isMetaName(name string) bool {
	for i := 0; i < len(name); i++ {
		switch b := name[i]; {
		case b >= 'A' && b <= 'Z':
		case b == '_':
		case b >= '0' && b <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Source returns the original pattern text.
func (p *Pattern) Source() string {
	return p.source
}

// Language returns the language the pattern was compiled for.
func (p *Pattern) Language() lang.Language {
	return p.language
}

func (p *Pattern) String() string {
	return p.source
}

// VarNames returns the named metavariables in pattern order, deduplicated.
func (p *Pattern) VarNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, el := range p.elems {
		if el.name != "" && !seen[el.name] {
			seen[el.name] = true
			names = append(names, el.name)
		}
	}
	return names
}

// Literals returns the pattern's literal word tokens. Prefiltering uses
// these as required keywords; a document containing none of them cannot
// match the pattern.
func (p *Pattern) Literals() []string {
	var out []string
	for _, el := range p.elems {
		if el.kind == elemLiteral && len(el.text) > 0 && isWordByte(el.text[0]) {
			out = append(out, el.text)
		}
	}
	return out
}

// MatchAll scans the document and yields non-overlapping matches in
// document order. The scan resumes past each match, so overlapping
// occurrences are not reported.
func (p *Pattern) MatchAll(doc *Doc) iter.Seq[*NodeMatch] {
	return func(yield func(*NodeMatch) bool) {
		toks := doc.tokens()
		first := p.elems[0]
		for i := 0; i < len(toks); {
			if first.kind == elemLiteral && !tokenIs(doc.content, toks[i], first.text) {
				i++
				continue
			}
			m := &matcher{doc: doc, toks: toks, elems: p.elems, env: newEnv()}
			if end, ok := m.matchFrom(i, 0); ok && end > i {
				if !yield(&NodeMatch{node: m.nodeFor(i, end), env: m.env}) {
					return
				}
				i = end
				continue
			}
			i++
		}
	}
}

// matcher carries the state of one anchored match attempt.
type matcher struct {
	doc   *Doc
	toks  []token
	elems []element
	env   *Env
}

// matchFrom matches elements ei.. against tokens ti.. and returns the token
// index just past the consumed run.
func (m *matcher) matchFrom(ti, ei int) (int, bool) {
	if ei == len(m.elems) {
		return ti, true
	}
	switch el := m.elems[ei]; el.kind {
	case elemLiteral:
		if ti < len(m.toks) && tokenIs(m.doc.content, m.toks[ti], el.text) {
			return m.matchFrom(ti+1, ei+1)
		}
		return 0, false
	case elemSingle:
		return m.matchSingle(ti, ei)
	default:
		return m.matchMulti(ti, ei)
	}
}

// matchSingle binds one expression: a token or balanced bracket group,
// widened unit by unit shortest-first until the rest of the pattern
// matches. Widening lets $A cover getMsg(1) in console.log($A) and x > 0
// in if $COND {, while separators keep neighboring arguments apart.
func (m *matcher) matchSingle(ti, ei int) (int, bool) {
	el := m.elems[ei]
	if ti >= len(m.toks) || m.isBoundary(ti) {
		return 0, false
	}
	end := m.atomEnd(ti)
	for {
		ok, fresh := true, false
		if el.name != "" {
			ok, fresh = m.env.bindSingle(el.name, m.nodeFor(ti, end))
		}
		if ok {
			if tEnd, matched := m.matchFrom(end, ei+1); matched {
				return tEnd, true
			}
			if fresh {
				m.env.unbindSingle(el.name)
			}
		}
		next, widened := m.extendUnit(end)
		if !widened {
			return 0, false
		}
		end = next
	}
}

// matchMulti binds the shortest run of units, possibly empty, such that the
// rest of the pattern matches. Runs never cross the enclosing bracket.
func (m *matcher) matchMulti(ti, ei int) (int, bool) {
	el := m.elems[ei]
	end := ti
	for {
		ok, fresh := true, false
		if el.name != "" {
			ok, fresh = m.env.bindMulti(el.name, m.runNodes(ti, end))
		}
		if ok {
			if tEnd, matched := m.matchFrom(end, ei+1); matched {
				return tEnd, true
			}
			if fresh {
				m.env.unbindMulti(el.name)
			}
		}
		if end >= len(m.toks) || m.isCloser(end) {
			return 0, false
		}
		end = m.atomEnd(end)
	}
}

// atomEnd returns the token index just past the unit starting at i: one
// token, or the whole group when the token opens a bracket. Unterminated
// groups run to the end of the document.
func (m *matcher) atomEnd(i int) int {
	open := m.punctByte(i)
	closer := closerFor(open)
	if closer == 0 {
		return i + 1
	}
	depth := 0
	for j := i; j < len(m.toks); j++ {
		switch m.punctByte(j) {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(m.toks)
}

// extendUnit widens a single-metavariable candidate by one more unit.
// Widening stops at separators, closers and block openers, so a bound
// expression never swallows the next argument or the block after it.
func (m *matcher) extendUnit(end int) (int, bool) {
	if end >= len(m.toks) || m.isBoundary(end) || m.punctByte(end) == '{' {
		return 0, false
	}
	return m.atomEnd(end), true
}

// runNodes converts the units in [start, end) to nodes, dropping separator
// punctuation so $$$ARGS in f($$$ARGS) binds the arguments, not the commas.
func (m *matcher) runNodes(start, end int) []Node {
	var nodes []Node
	for i := start; i < end; {
		next := m.unitEnd(i)
		if next > end {
			next = end
		}
		if b := m.punctByte(i); !(next == i+1 && (b == ',' || b == ';')) {
			nodes = append(nodes, m.nodeFor(i, next))
		}
		i = next
	}
	return nodes
}

// unitEnd returns the index past the expression unit at i: an atom glued to
// its member/call/index postfixes, so b(c) and a.b[0] each list as one node.
func (m *matcher) unitEnd(i int) int {
	end := m.atomEnd(i)
	for end < len(m.toks) {
		switch m.punctByte(end) {
		case '(', '[':
			end = m.atomEnd(end)
		case '.':
			if end+1 < len(m.toks) && m.toks[end+1].kind == tokenWord {
				end += 2
				continue
			}
			return end
		default:
			return end
		}
	}
	return end
}

// nodeFor builds a node covering tokens [ti, tEnd). An empty token run
// yields a zero-width node at the boundary.
func (m *matcher) nodeFor(ti, tEnd int) Node {
	if ti >= tEnd {
		at := len(m.doc.content)
		if ti < len(m.toks) {
			at = m.toks[ti].span.Start
		}
		return Node{doc: m.doc, span: types.ByteSpan{Start: at, End: at}}
	}
	return Node{doc: m.doc, span: types.ByteSpan{
		Start: m.toks[ti].span.Start,
		End:   m.toks[tEnd-1].span.End,
	}}
}

// punctByte returns the byte of a single punctuation token, or 0.
func (m *matcher) punctByte(i int) byte {
	if i >= len(m.toks) || m.toks[i].kind != tokenPunct {
		return 0
	}
	return m.doc.content[m.toks[i].span.Start]
}

func (m *matcher) isCloser(i int) bool {
	switch m.punctByte(i) {
	case ')', ']', '}':
		return true
	}
	return false
}

// isBoundary reports whether the token at i ends an expression: a closing
// bracket or a separator.
func (m *matcher) isBoundary(i int) bool {
	switch m.punctByte(i) {
	case ')', ']', '}', ',', ';':
		return true
	}
	return false
}

func closerFor(b byte) byte {
	switch b {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

// tokenIs compares a token's text without allocating.
func tokenIs(content []byte, t token, s string) bool {
	return string(content[t.span.Start:t.span.End]) == s
}
