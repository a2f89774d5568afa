package rule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
)

// Loader reads and compiles rule documents from YAML.
type Loader struct {
	// Strict rejects unknown YAML fields, catching typos like "pattren".
	Strict bool
}

// NewLoader creates a lenient loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Parse decodes and compiles every rule document in data.
func (l *Loader) Parse(data []byte) ([]*Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(l.Strict)

	var rules []*Rule
	for {
		var yr yamlRule
		if err := dec.Decode(&yr); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse rule YAML: %w", err)
		}
		r, err := compileRule(yr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}
	return rules, nil
}

// ParseOne decodes exactly one rule document.
// Returns an error if the data holds zero or several rules.
func (l *Loader) ParseOne(data []byte) (*Rule, error) {
	rules, err := l.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(rules) > 1 {
		return nil, fmt.Errorf("expected single rule, found %d", len(rules))
	}
	return rules[0], nil
}

// LoadFile loads all rules from a YAML file.
func (l *Loader) LoadFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	rules, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadDir walks a directory tree and loads every .yml and .yaml file, in
// lexical order.
func (l *Loader) LoadDir(dir string) ([]*Rule, error) {
	var rules []*Rule
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isRuleFile(path) {
			return nil
		}
		rs, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		rules = append(rules, rs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rule files found under %s", dir)
	}
	return rules, nil
}

// Load loads rules from a path, dispatching on whether it is a file or a
// directory.
func (l *Loader) Load(path string) ([]*Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

func isRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// compileRule converts a decoded document into an executable rule. Identity
// checks beyond what compilation needs are left to ValidateRule.
func compileRule(yr yamlRule) (*Rule, error) {
	if yr.Language == "" {
		return nil, fmt.Errorf("rule %q: language is required", yr.ID)
	}
	language, err := lang.Parse(yr.Language)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", yr.ID, err)
	}
	if yr.Rule.Pattern == "" {
		return nil, fmt.Errorf("rule %q: rule.pattern is required", yr.ID)
	}
	p, err := pattern.Compile(yr.Rule.Pattern, language)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", yr.ID, err)
	}

	r := &Rule{
		ID:               yr.ID,
		Language:         language,
		Severity:         yr.Severity,
		Message:          yr.Message,
		Note:             yr.Note,
		Pattern:          p,
		Fix:              yr.Fix,
		Labels:           yr.Labels,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
	}
	if len(yr.Constraints) > 0 {
		r.Constraints = make(map[string]*Constraint, len(yr.Constraints))
		for name, yc := range yr.Constraints {
			c, err := compileConstraint(yc.Regex)
			if err != nil {
				return nil, fmt.Errorf("rule %q: constraint %s: %w", yr.ID, name, err)
			}
			r.Constraints[name] = c
		}
	}
	return r, nil
}
