// Package lang defines the source languages the search engine understands
// and how files are mapped onto them.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language identifies a supported source language.
// The string value is the canonical lowercase name used on the wire.
type Language string

// Supported languages.
const (
	Bash       Language = "bash"
	C          Language = "c"
	Cpp        Language = "cpp"
	CSharp     Language = "csharp"
	Css        Language = "css"
	Go         Language = "go"
	Html       Language = "html"
	Java       Language = "java"
	JavaScript Language = "javascript"
	Json       Language = "json"
	Kotlin     Language = "kotlin"
	Lua        Language = "lua"
	Php        Language = "php"
	Python     Language = "python"
	Ruby       Language = "ruby"
	Rust       Language = "rust"
	Scala      Language = "scala"
	Swift      Language = "swift"
	TypeScript Language = "typescript"
	Tsx        Language = "tsx"
	Yaml       Language = "yaml"
)

// String returns the canonical language name.
func (l Language) String() string {
	return string(l)
}

// extensions maps file extensions (without the dot) to languages.
var extensions = map[string]Language{
	"sh":    Bash,
	"bash":  Bash,
	"c":     C,
	"h":     C,
	"cc":    Cpp,
	"cpp":   Cpp,
	"cxx":   Cpp,
	"hpp":   Cpp,
	"hh":    Cpp,
	"cs":    CSharp,
	"css":   Css,
	"go":    Go,
	"html":  Html,
	"htm":   Html,
	"java":  Java,
	"js":    JavaScript,
	"jsx":   JavaScript,
	"mjs":   JavaScript,
	"cjs":   JavaScript,
	"json":  Json,
	"kt":    Kotlin,
	"kts":   Kotlin,
	"lua":   Lua,
	"php":   Php,
	"py":    Python,
	"rb":    Ruby,
	"rs":    Rust,
	"scala": Scala,
	"swift": Swift,
	"ts":    TypeScript,
	"mts":   TypeScript,
	"cts":   TypeScript,
	"tsx":   Tsx,
	"yml":   Yaml,
	"yaml":  Yaml,
}

// aliases maps alternate names accepted on the command line and in rule
// files to canonical languages.
var aliases = map[string]Language{
	"js":     JavaScript,
	"jsx":    JavaScript,
	"ts":     TypeScript,
	"py":     Python,
	"rb":     Ruby,
	"kt":     Kotlin,
	"cs":     CSharp,
	"c#":     CSharp,
	"c++":    Cpp,
	"sh":     Bash,
	"shell":  Bash,
	"golang": Go,
}

// FromPath infers the language of a file from its extension.
// The second return value is false when the extension is unknown.
func FromPath(path string) (Language, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	l, ok := extensions[strings.ToLower(ext)]
	return l, ok
}

// Parse resolves a language name or alias to a Language.
// Returns an error for unrecognized names so callers can report the
// offending user input.
func Parse(name string) (Language, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if l, ok := aliases[n]; ok {
		return l, nil
	}
	for _, l := range All() {
		if n == string(l) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language: %q", name)
}

// All returns every supported language in a stable order.
func All() []Language {
	return []Language{
		Bash, C, Cpp, CSharp, Css, Go, Html, Java, JavaScript, Json,
		Kotlin, Lua, Php, Python, Ruby, Rust, Scala, Swift,
		TypeScript, Tsx, Yaml,
	}
}
