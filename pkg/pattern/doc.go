// Package pattern implements structural pattern matching over source text.
//
// A pattern is ordinary source code in which metavariables stand for parts
// of the program: $NAME matches one expression-like unit, $$$NAME matches a
// run of units. Matching operates on a token tree, so bracket structure and
// string literals are respected while whitespace and comments are not
// significant.
package pattern

import (
	"sort"
	"sync"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Doc is a source document prepared for matching.
// It borrows the content buffer for its lifetime and indexes line starts so
// positions can be derived from byte offsets in O(log n).
type Doc struct {
	content    []byte
	language   lang.Language
	lineStarts []int

	tokOnce sync.Once
	toks    []token
}

// NewDoc wraps source content for matching.
// The caller must not mutate content while the Doc is in use.
func NewDoc(content []byte, language lang.Language) *Doc {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Doc{
		content:    content,
		language:   language,
		lineStarts: starts,
	}
}

// Content returns the underlying source buffer.
func (d *Doc) Content() []byte {
	return d.content
}

// Language returns the document's language.
func (d *Doc) Language() lang.Language {
	return d.language
}

// PositionFor converts a byte offset to a zero-based line:column position.
// Offsets at or past the end of content resolve to the final position.
func (d *Doc) PositionFor(offset int) types.Position {
	if offset > len(d.content) {
		offset = len(d.content)
	}
	line := sort.SearchInts(d.lineStarts, offset+1) - 1
	return types.Position{Line: line, Column: offset - d.lineStarts[line]}
}

// RangeFor converts a byte span to a Range with start/end positions.
func (d *Doc) RangeFor(span types.ByteSpan) types.Range {
	return types.Range{
		ByteOffset: span,
		Start:      d.PositionFor(span.Start),
		End:        d.PositionFor(span.End),
	}
}

// tokens lexes the document once and caches the result.
func (d *Doc) tokens() []token {
	d.tokOnce.Do(func() {
		d.toks = tokenize(d.content, d.language)
	})
	return d.toks
}

// Node is a read-only view of a located span of a document.
// It does not own the source buffer.
type Node struct {
	doc  *Doc
	span types.ByteSpan
}

// Text returns the node's source text.
// This copies out of the buffer; call it only when the text is needed.
func (n Node) Text() string {
	return string(n.doc.content[n.span.Start:n.span.End])
}

// Span returns the node's byte range.
func (n Node) Span() types.ByteSpan {
	return n.span
}

// Range returns the node's byte range with line:column positions.
func (n Node) Range() types.Range {
	return n.doc.RangeFor(n.span)
}

// Doc returns the document the node points into.
func (n Node) Doc() *Doc {
	return n.doc
}
