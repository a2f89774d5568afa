package pattern

import (
	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// NodeMatch is one occurrence of a pattern in a document, together with the
// environment of metavariable bindings established by the match.
type NodeMatch struct {
	node Node
	env  *Env
}

// Node returns the matched region as a node.
func (m *NodeMatch) Node() Node {
	return m.node
}

// Text returns the matched source text.
func (m *NodeMatch) Text() string {
	return m.node.Text()
}

// Span returns the matched byte range.
func (m *NodeMatch) Span() types.ByteSpan {
	return m.node.Span()
}

// Range returns the matched byte range with line:column positions.
func (m *NodeMatch) Range() types.Range {
	return m.node.Range()
}

// Lang returns the language of the matched document.
func (m *NodeMatch) Lang() lang.Language {
	return m.node.Doc().Language()
}

// Doc returns the document the match points into.
func (m *NodeMatch) Doc() *Doc {
	return m.node.Doc()
}

// Env returns the match's binding environment.
func (m *NodeMatch) Env() *Env {
	return m.env
}
