// Package astgrep provides structural code search and rewriting.
//
// A searcher matches a code pattern against source text at the token level,
// so formatting differences never hide a match. Metavariables bind parts of
// the matched code: $NAME captures one expression, $$$NAME captures a run
// of units such as an argument list.
//
// # Basic Usage
//
// Create a searcher for one language and search content:
//
//	searcher, err := astgrep.NewSearcher("console.log($MSG)",
//	    astgrep.WithLanguage(astgrep.JavaScript))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	records, err := searcher.SearchString("console.log(greeting)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, rec := range records {
//	    fmt.Printf("%s at line %d\n", rec.Text, rec.Range.Start.Line+1)
//	}
//
// # Searching Files
//
// SearchFile infers the language from the file extension, so a searcher
// built without WithLanguage covers every supported language:
//
//	searcher, err := astgrep.NewSearcher("fmt.Println($$$ARGS)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	records, err := searcher.SearchFile("main.go")
//
// # With Rules
//
// Attach configured rules to scan content the way the CLI does, severity
// and message included:
//
//	rules, err := astgrep.LoadRulesFromFile("rules/no-console.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	searcher, err := astgrep.NewSearcher("", astgrep.WithRules(rules))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	records, err := searcher.ScanFile("src/app.js")
//	for _, rec := range records {
//	    fmt.Printf("%s[%s]: %s\n", rec.Severity, rec.RuleID, rec.Message)
//	}
package astgrep

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/prefilter"
	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/Xuanwo/ast-grep" without subpackages.
type (
	// MatchRecord is a single pattern match with its text, location, and
	// metavariable bindings.
	MatchRecord = types.MatchRecord

	// RuleMatchRecord is a match produced by a configured rule, carrying
	// the rule's ID, severity, and message alongside the match itself.
	RuleMatchRecord = types.RuleMatchRecord

	// Range locates a match by byte offsets and by line/column positions.
	Range = types.Range

	// Position is a zero-based line and column within the source.
	Position = types.Position

	// Severity grades a rule from hint to error; off disables it.
	Severity = types.Severity

	// MetaVariables holds what a match bound to $NAME and $$$NAME captures.
	MetaVariables = types.MetaVariables

	// Language identifies a supported source language.
	Language = lang.Language

	// Rule is a configured rule loaded from YAML.
	Rule = rule.Rule
)

// Re-export severity levels.
const (
	SeverityHint    = types.SeverityHint
	SeverityInfo    = types.SeverityInfo
	SeverityWarning = types.SeverityWarning
	SeverityError   = types.SeverityError
	SeverityOff     = types.SeverityOff
)

// Re-export supported languages.
const (
	Bash       = lang.Bash
	C          = lang.C
	Cpp        = lang.Cpp
	CSharp     = lang.CSharp
	Css        = lang.Css
	Go         = lang.Go
	Html       = lang.Html
	Java       = lang.Java
	JavaScript = lang.JavaScript
	Json       = lang.Json
	Kotlin     = lang.Kotlin
	Lua        = lang.Lua
	Php        = lang.Php
	Python     = lang.Python
	Ruby       = lang.Ruby
	Rust       = lang.Rust
	Scala      = lang.Scala
	Swift      = lang.Swift
	TypeScript = lang.TypeScript
	Tsx        = lang.Tsx
	Yaml       = lang.Yaml
)

// Searcher matches a compiled pattern, and optionally a set of rules,
// against source content. A Searcher is immutable after construction and
// safe for concurrent use.
type Searcher struct {
	patterns map[lang.Language]*pattern.Pattern
	langs    []lang.Language
	rules    []*rule.Rule
	filter   *prefilter.Prefilter
	rewrite  string
}

// searcherConfig holds searcher configuration.
type searcherConfig struct {
	languages []lang.Language
	rules     []*rule.Rule
	rewrite   string
}

// Option configures a Searcher.
type Option func(*searcherConfig)

// WithLanguage limits the search to a language. Repeat the option to cover
// several. If not specified, the pattern compiles for every supported
// language and SearchFile picks one by file extension.
func WithLanguage(l Language) Option {
	return func(c *searcherConfig) {
		c.languages = append(c.languages, l)
	}
}

// WithRules attaches configured rules, enabling the Scan methods.
func WithRules(rules []*Rule) Option {
	return func(c *searcherConfig) {
		c.rules = rules
	}
}

// WithRewrite sets a rewrite template. Search records then carry the
// rendered replacement for each match, with the same $NAME and $$$NAME
// substitution as rule fix templates.
func WithRewrite(template string) Option {
	return func(c *searcherConfig) {
		c.rewrite = template
	}
}

// NewSearcher compiles patternSrc for the configured languages.
//
// patternSrc may be empty when WithRules supplies rules; the Search methods
// then report an error and only the Scan methods are usable.
//
// Example:
//
//	// Search one language
//	searcher, err := astgrep.NewSearcher("console.log($MSG)",
//	    astgrep.WithLanguage(astgrep.JavaScript))
//
//	// Search any file type
//	searcher, err := astgrep.NewSearcher("dbg!($X)")
//
//	// Scan with rules only
//	searcher, err := astgrep.NewSearcher("", astgrep.WithRules(rules))
func NewSearcher(patternSrc string, opts ...Option) (*Searcher, error) {
	config := &searcherConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if patternSrc == "" && len(config.rules) == 0 {
		return nil, fmt.Errorf("a pattern or rules are required")
	}

	langs := config.languages
	if len(langs) == 0 {
		langs = lang.All()
	}

	patterns := make(map[lang.Language]*pattern.Pattern, len(langs))
	if patternSrc != "" {
		for _, l := range langs {
			p, err := pattern.Compile(patternSrc, l)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern for %s: %w", l, err)
			}
			patterns[l] = p
		}
	}

	var filter *prefilter.Prefilter
	if len(config.rules) > 0 {
		filter = prefilter.New(config.rules)
	}

	return &Searcher{
		patterns: patterns,
		langs:    langs,
		rules:    config.rules,
		filter:   filter,
		rewrite:  config.rewrite,
	}, nil
}

// SearchString searches a string and returns all pattern matches.
//
// The searcher must be limited to exactly one language, since raw content
// has no file extension to infer one from.
func (s *Searcher) SearchString(content string) ([]MatchRecord, error) {
	return s.SearchBytes([]byte(content))
}

// SearchBytes searches raw bytes and returns all pattern matches.
func (s *Searcher) SearchBytes(content []byte) ([]MatchRecord, error) {
	if len(s.langs) != 1 {
		return nil, fmt.Errorf("searching raw content requires exactly one language, have %d", len(s.langs))
	}
	return s.searchDoc(content, s.langs[0], "")
}

// SearchFile reads a file, infers its language from the extension, and
// returns all pattern matches. Records carry the file path.
func (s *Searcher) SearchFile(path string) ([]MatchRecord, error) {
	l, ok := lang.FromPath(path)
	if !ok {
		return nil, fmt.Errorf("no supported language for %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.searchDoc(content, l, path)
}

func (s *Searcher) searchDoc(content []byte, l lang.Language, path string) ([]MatchRecord, error) {
	if len(s.patterns) == 0 {
		return nil, fmt.Errorf("searcher has no pattern")
	}
	p, ok := s.patterns[l]
	if !ok {
		return nil, fmt.Errorf("searcher does not cover %s files", l)
	}

	doc := pattern.NewDoc(content, l)
	var records []MatchRecord
	for m := range p.MatchAll(doc) {
		rec := printer.NewMatchRecord(m, path)
		if s.rewrite != "" {
			replacement := rule.Render(s.rewrite, m)
			rec.Replacement = &replacement
		}
		records = append(records, rec)
	}
	return records, nil
}

// ScanString runs every attached rule against a string.
//
// Each rule parses the content in its own language, the same way rule
// example checking does, so one call can exercise a mixed rule set.
func (s *Searcher) ScanString(content string) ([]RuleMatchRecord, error) {
	return s.ScanBytes([]byte(content))
}

// ScanBytes runs every attached rule against raw bytes.
func (s *Searcher) ScanBytes(content []byte) ([]RuleMatchRecord, error) {
	return s.scanContent(content, "", nil)
}

// ScanFile reads a file and runs the attached rules whose language matches
// its extension. Records carry the file path, and rules with a fix carry
// the rendered replacement.
func (s *Searcher) ScanFile(path string) ([]RuleMatchRecord, error) {
	l, ok := lang.FromPath(path)
	if !ok {
		return nil, fmt.Errorf("no supported language for %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.scanContent(content, path, &l)
}

// ScanNamed runs the attached rules against content that has a file name but
// no backing file, the way an editor hands over an unsaved buffer. Rules are
// gated by the name's language and records carry the name as their file.
func (s *Searcher) ScanNamed(path string, content []byte) ([]RuleMatchRecord, error) {
	l, ok := lang.FromPath(path)
	if !ok {
		return nil, fmt.Errorf("no supported language for %s", path)
	}
	return s.scanContent(content, path, &l)
}

func (s *Searcher) scanContent(content []byte, path string, only *lang.Language) ([]RuleMatchRecord, error) {
	if s.filter == nil {
		return nil, nil
	}

	var records []RuleMatchRecord
	docs := make(map[lang.Language]*pattern.Doc)
	for _, r := range s.filter.Filter(content) {
		if only != nil && r.Language != *only {
			continue
		}
		doc, ok := docs[r.Language]
		if !ok {
			doc = pattern.NewDoc(content, r.Language)
			docs[r.Language] = doc
		}
		ms, err := r.Matches(doc)
		if err != nil {
			return nil, fmt.Errorf("running rule %s: %w", r.ID, err)
		}
		for _, m := range ms {
			rec := printer.NewRuleMatchRecord(m, path, r)
			if fix, ok := r.FixFor(m); ok {
				rec.Replacement = &fix
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Languages returns a copy of the languages the searcher covers.
func (s *Searcher) Languages() []Language {
	return slices.Clone(s.langs)
}

// RuleCount returns the number of attached rules.
func (s *Searcher) RuleCount() int {
	return len(s.rules)
}

// Rules returns a copy of the attached rules.
func (s *Searcher) Rules() []*Rule {
	return slices.Clone(s.rules)
}

// LoadRulesFromFile loads rules from a YAML file. A file may hold several
// rules separated by --- document markers.
//
// Example:
//
//	rules, err := astgrep.LoadRulesFromFile("rules/no-console.yml")
//	if err != nil {
//	    return err
//	}
//	searcher, err := astgrep.NewSearcher("", astgrep.WithRules(rules))
func LoadRulesFromFile(path string) ([]*Rule, error) {
	return rule.NewLoader().LoadFile(path)
}

// LoadRulesFromDir loads every rule file in a directory tree.
func LoadRulesFromDir(dir string) ([]*Rule, error) {
	return rule.NewLoader().LoadDir(dir)
}

// WriteMatches renders records as the same streaming JSON array the CLI
// emits, one indented object per match.
func WriteMatches(w io.Writer, records []MatchRecord) error {
	p := printer.NewJSON(w)
	if err := p.BeforePrint(); err != nil {
		return err
	}
	if err := p.PrintMatchRecords(slices.Values(records)); err != nil {
		return err
	}
	return p.AfterPrint()
}

// WriteRuleMatches renders rule match records as a JSON array.
func WriteRuleMatches(w io.Writer, records []RuleMatchRecord) error {
	p := printer.NewJSON(w)
	if err := p.BeforePrint(); err != nil {
		return err
	}
	if err := p.PrintRuleRecords(slices.Values(records)); err != nil {
		return err
	}
	return p.AfterPrint()
}
