// Package prefilter decides per document which rules can possibly match,
// so a multi-rule scan runs the full matcher only where it can pay off.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/Xuanwo/ast-grep/pkg/rule"
)

// minKeywordLen is the shortest literal worth prefiltering on. Shorter
// literals hit almost every document and only add matcher work.
const minKeywordLen = 3

// Prefilter uses Aho-Corasick keyword matching over rule pattern literals.
type Prefilter struct {
	rules        []*rule.Rule
	matcher      *ahocorasick.Matcher
	keywords     []string         // keyword at each matcher index
	keywordRules map[string][]int // keyword -> rule indexes needing it
	alwaysRun    []int            // rules without a usable literal
}

// New creates a prefilter from rules. Each rule is keyed by the longest
// literal of its pattern; a rule whose pattern has no literal of at least
// three bytes is checked on every document.
func New(rules []*rule.Rule) *Prefilter {
	pf := &Prefilter{
		rules:        rules,
		keywordRules: make(map[string][]int),
	}

	keywordSet := make(map[string]bool)
	for i, r := range rules {
		keyword := keywordFor(r)
		if keyword == "" {
			pf.alwaysRun = append(pf.alwaysRun, i)
			continue
		}
		if !keywordSet[keyword] {
			keywordSet[keyword] = true
			pf.keywords = append(pf.keywords, keyword)
		}
		pf.keywordRules[keyword] = append(pf.keywordRules[keyword], i)
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules worth running against content, in their original
// order: rules whose keyword occurs plus rules that always run.
func (pf *Prefilter) Filter(content []byte) []*rule.Rule {
	keep := make([]bool, len(pf.rules))
	for _, i := range pf.alwaysRun {
		keep[i] = true
	}

	if pf.matcher != nil {
		for _, hit := range pf.matcher.Match(content) {
			for _, i := range pf.keywordRules[pf.keywords[hit]] {
				keep[i] = true
			}
		}
	}

	var result []*rule.Rule
	for i, k := range keep {
		if k {
			result = append(result, pf.rules[i])
		}
	}
	return result
}

// keywordFor picks the rule's prefilter keyword: the longest pattern
// literal of at least minKeywordLen bytes, or "" when none qualifies.
func keywordFor(r *rule.Rule) string {
	var best string
	for _, lit := range r.Pattern.Literals() {
		if len(lit) >= minKeywordLen && len(lit) > len(best) {
			best = lit
		}
	}
	return best
}
