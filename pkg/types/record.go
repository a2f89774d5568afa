package types

import "github.com/Xuanwo/ast-grep/pkg/lang"

// TextNode is the located text of a single matched node.
// The text is copied out of the source buffer at record-build time, so a
// record stays valid after the buffer is released.
type TextNode struct {
	Text  string `json:"text"`
	Range Range  `json:"range"`
}

// MetaVariables groups a match's variable bindings by arity.
// Single holds one node per variable; Multi holds the ordered node list of
// each ellipsis variable. A name appears in exactly one of the two maps.
type MetaVariables struct {
	Single map[string]TextNode   `json:"single"`
	Multi  map[string][]TextNode `json:"multi"`
}

// NewMetaVariables returns a table with both maps allocated.
// Empty maps serialize as {}, never null.
func NewMetaVariables() *MetaVariables {
	return &MetaVariables{
		Single: make(map[string]TextNode),
		Multi:  make(map[string][]TextNode),
	}
}

// MatchRecord is one pattern match located in one file.
// Replacement is set only for rewrite results. MetaVariables is present
// only when the match bound at least one named variable.
type MatchRecord struct {
	Text          string         `json:"text"`
	Range         Range          `json:"range"`
	File          string         `json:"file"`
	Replacement   *string        `json:"replacement,omitempty"`
	Language      lang.Language  `json:"language"`
	MetaVariables *MetaVariables `json:"metaVariables,omitempty"`
}

// RuleMatchRecord is a match produced by a configured rule.
// The embedded MatchRecord fields are flattened into the same JSON object.
// Labels carries the rule's secondary spans in their defined order.
type RuleMatchRecord struct {
	MatchRecord
	RuleID   string     `json:"ruleId"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Labels   []TextNode `json:"labels,omitempty"`
}
