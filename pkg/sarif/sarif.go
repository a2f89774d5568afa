// Package sarif renders scan results in the SARIF 2.1.0 interchange
// format, so code hosts and CI systems can ingest them.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/Xuanwo/ast-grep/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "ast-grep"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes a scan rule in the driver's rule table
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single match
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
	Fixes     []Fix      `json:"fixes,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range. SARIF lines and columns are
// one-based.
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the matched text
type Snippet struct {
	Text string `json:"text"`
}

// Fix proposes an automatic replacement for a result
type Fix struct {
	Description     Message          `json:"description"`
	ArtifactChanges []ArtifactChange `json:"artifactChanges"`
}

// ArtifactChange groups the replacements for one file
type ArtifactChange struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Replacements     []Replacement    `json:"replacements"`
}

// Replacement swaps a deleted region for inserted content
type Replacement struct {
	DeletedRegion   Region  `json:"deletedRegion"`
	InsertedContent Message `json:"insertedContent"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a rule to the driver's rule table.
func (r *Report) AddRule(id, description string) {
	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, Rule{
		ID:   id,
		Name: id,
		ShortDescription: ShortDescription{
			Text: description,
		},
	})
}

// AddResult adds one rule match to the report. A record with a replacement
// carries it as a SARIF fix, so code hosts can offer the rewrite.
func (r *Report) AddResult(rec types.RuleMatchRecord) {
	region := Region{
		StartLine:   rec.Range.Start.Line + 1,
		StartColumn: rec.Range.Start.Column + 1,
		EndLine:     rec.Range.End.Line + 1,
		EndColumn:   rec.Range.End.Column + 1,
	}
	uri := formatFileURI(rec.File)

	if rec.Text != "" {
		region.Snippet = &Snippet{Text: rec.Text}
	}

	result := Result{
		RuleID: rec.RuleID,
		Level:  levelFor(rec.Severity),
		Message: Message{
			Text: rec.Message,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: uri,
					},
					Region: region,
				},
			},
		},
	}

	if rec.Replacement != nil {
		deleted := region
		deleted.Snippet = nil
		result.Fixes = []Fix{
			{
				Description: Message{Text: "Replace with " + *rec.Replacement},
				ArtifactChanges: []ArtifactChange{
					{
						ArtifactLocation: ArtifactLocation{URI: uri},
						Replacements: []Replacement{
							{
								DeletedRegion:   deleted,
								InsertedContent: Message{Text: *rec.Replacement},
							},
						},
					},
				},
			},
		}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// Build assembles a complete report from stored records. The driver's
// rule table lists each rule once, in first-seen order, described by the
// message of its first match.
func Build(records []types.RuleMatchRecord) *Report {
	report := NewReport()
	seen := make(map[string]bool)
	for _, rec := range records {
		if !seen[rec.RuleID] {
			seen[rec.RuleID] = true
			report.AddRule(rec.RuleID, rec.Message)
		}
		report.AddResult(rec)
	}
	return report
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// levelFor maps a rule severity onto the SARIF level vocabulary.
func levelFor(s types.Severity) string {
	switch s {
	case types.SeverityError:
		return "error"
	case types.SeverityWarning:
		return "warning"
	case types.SeverityOff:
		return "none"
	default:
		return "note"
	}
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
