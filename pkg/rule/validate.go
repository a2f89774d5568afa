package rule

import (
	"fmt"

	"github.com/Xuanwo/ast-grep/pkg/pattern"
)

// ValidateRule checks rule consistency beyond what loading enforces.
// Returns an error if the rule is invalid.
func ValidateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Pattern == nil {
		return fmt.Errorf("rule %s has no pattern", r.ID)
	}

	known := make(map[string]bool)
	for _, name := range r.Pattern.VarNames() {
		known[name] = true
	}
	for name := range r.Constraints {
		if !known[name] {
			return fmt.Errorf("rule %s constrains unknown metavariable %s", r.ID, name)
		}
	}
	for name := range r.Labels {
		if !known[name] {
			return fmt.Errorf("rule %s labels unknown metavariable %s", r.ID, name)
		}
	}
	return nil
}

// CheckExamples runs the rule against its example snippets. Every example
// must produce at least one match; every negative example must produce none.
func CheckExamples(r *Rule) error {
	for i, src := range r.Examples {
		ms, err := r.Matches(pattern.NewDoc([]byte(src), r.Language))
		if err != nil {
			return fmt.Errorf("rule %s example %d: %w", r.ID, i, err)
		}
		if len(ms) == 0 {
			return fmt.Errorf("rule %s example %d did not match", r.ID, i)
		}
	}
	for i, src := range r.NegativeExamples {
		ms, err := r.Matches(pattern.NewDoc([]byte(src), r.Language))
		if err != nil {
			return fmt.Errorf("rule %s negative example %d: %w", r.ID, i, err)
		}
		if len(ms) > 0 {
			return fmt.Errorf("rule %s negative example %d matched", r.ID, i)
		}
	}
	return nil
}
