package pattern

import (
	"strings"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// tokenKind classifies lexed tokens.
type tokenKind int

const (
	// tokenWord covers identifiers, keywords and numbers. Metavariable
	// sigils ($) count as word bytes so $NAME lexes as one token.
	tokenWord tokenKind = iota
	// tokenString is a quoted literal, quotes included.
	tokenString
	// tokenPunct is a single punctuation byte.
	tokenPunct
)

type token struct {
	kind tokenKind
	span types.ByteSpan
}

func (t token) text(content []byte) string {
	return string(content[t.span.Start:t.span.End])
}

// isWordByte reports whether b continues an identifier-like token.
// Bytes >= 0x80 are treated as word bytes so multi-byte runes stay glued.
func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '$':
		return true
	case b >= 0x80:
		return true
	}
	return false
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func hasPrefixAt(content []byte, i int, s string) bool {
	return s != "" && len(content)-i >= len(s) && string(content[i:i+len(s)]) == s
}

// tokenize lexes content into words, strings and punctuation.
// Whitespace and comments produce no tokens; matching never sees them.
func tokenize(content []byte, language lang.Language) []token {
	cs := language.Comments()
	var toks []token
	i := 0
	for i < len(content) {
		b := content[i]

		if isSpaceByte(b) {
			i++
			continue
		}

		// Block comments are checked before line comments so the longer
		// opener wins when they share a prefix, as in Lua's --[[ and --.
		if hasPrefixAt(content, i, cs.BlockOpen) {
			end := strings.Index(string(content[i+len(cs.BlockOpen):]), cs.BlockClose)
			if end < 0 {
				break
			}
			i += len(cs.BlockOpen) + end + len(cs.BlockClose)
			continue
		}
		if opener := lineCommentAt(content, i, cs.Line); opener != "" {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if b == '"' || b == '\'' || b == '`' {
			start := i
			i = scanString(content, i)
			toks = append(toks, token{kind: tokenString, span: types.ByteSpan{Start: start, End: i}})
			continue
		}

		if isWordByte(b) {
			start := i
			for i < len(content) && isWordByte(content[i]) {
				i++
			}
			toks = append(toks, token{kind: tokenWord, span: types.ByteSpan{Start: start, End: i}})
			continue
		}

		toks = append(toks, token{kind: tokenPunct, span: types.ByteSpan{Start: i, End: i + 1}})
		i++
	}
	return toks
}

func lineCommentAt(content []byte, i int, openers []string) string {
	for _, o := range openers {
		if hasPrefixAt(content, i, o) {
			return o
		}
	}
	return ""
}

// scanString consumes a quoted literal starting at i and returns the offset
// past the closing quote. Backslash escapes are honored except inside
// backtick strings. Unterminated literals run to end of content.
func scanString(content []byte, i int) int {
	quote := content[i]
	i++
	for i < len(content) {
		switch content[i] {
		case '\\':
			if quote != '`' && i+1 < len(content) {
				i++
			}
		case quote:
			return i + 1
		}
		i++
	}
	return i
}
