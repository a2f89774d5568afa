package lang

// CommentSyntax describes how comments are written in a language.
// The tokenizer skips comment text so patterns match code only.
type CommentSyntax struct {
	Line       []string // line comment openers, e.g. "//" or "#"
	BlockOpen  string   // block comment opener, empty if none
	BlockClose string   // block comment closer, empty if none
}

// cFamily is the comment syntax shared by the C-like languages.
var cFamily = CommentSyntax{Line: []string{"//"}, BlockOpen: "/*", BlockClose: "*/"}

var comments = map[Language]CommentSyntax{
	Bash:       {Line: []string{"#"}},
	C:          cFamily,
	Cpp:        cFamily,
	CSharp:     cFamily,
	Css:        {BlockOpen: "/*", BlockClose: "*/"},
	Go:         cFamily,
	Html:       {BlockOpen: "<!--", BlockClose: "-->"},
	Java:       cFamily,
	JavaScript: cFamily,
	Json:       {},
	Kotlin:     cFamily,
	Lua:        {Line: []string{"--"}, BlockOpen: "--[[", BlockClose: "]]"},
	Php:        {Line: []string{"//", "#"}, BlockOpen: "/*", BlockClose: "*/"},
	Python:     {Line: []string{"#"}},
	Ruby:       {Line: []string{"#"}},
	Rust:       cFamily,
	Scala:      cFamily,
	Swift:      cFamily,
	TypeScript: cFamily,
	Tsx:        cFamily,
	Yaml:       {Line: []string{"#"}},
}

// Comments returns the comment syntax for the language.
// Unknown languages get no comment handling.
func (l Language) Comments() CommentSyntax {
	return comments[l]
}
