package rule

import "github.com/Xuanwo/ast-grep/pkg/types"

// yamlRule is the on-disk rule document. One YAML document holds one rule;
// a file may hold several documents separated by ---.
type yamlRule struct {
	ID       string         `yaml:"id"`
	Language string         `yaml:"language"`
	Severity types.Severity `yaml:"severity,omitempty"`
	Message  string         `yaml:"message,omitempty"`
	Note     string         `yaml:"note,omitempty"`

	Rule        yamlRuleBody              `yaml:"rule"`
	Constraints map[string]yamlConstraint `yaml:"constraints,omitempty"`
	Fix         *string                   `yaml:"fix,omitempty"`
	Labels      map[string]string         `yaml:"labels,omitempty"`

	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negativeExamples,omitempty"`
}

// yamlRuleBody carries the matcher part of a rule document.
type yamlRuleBody struct {
	Pattern string `yaml:"pattern"`
}

type yamlConstraint struct {
	Regex string `yaml:"regex"`
}
