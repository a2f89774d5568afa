package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

var (
	rulesRuleFile string
	rulesRuleDir  string
	rulesFormat   string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule files",
	Long:  "Commands for listing rules and checking them against their examples",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured rules",
	Long:  "Display the rules of a file or directory with their IDs and severities",
	RunE:  runRulesList,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate rules against their examples",
	Long: `Check rule consistency and run each rule over its declared examples.
Every example must match, every negative example must not.`,
	RunE: runRulesValidate,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	for _, c := range []*cobra.Command{rulesListCmd, rulesValidateCmd} {
		c.Flags().StringVarP(&rulesRuleFile, "rule", "r", "", "Path to a rule file")
		c.Flags().StringVarP(&rulesRuleDir, "config", "c", "", "Directory of rule files")
	}
	rulesListCmd.Flags().StringVar(&rulesFormat, "format", "table", "Output format: table, json")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSet(rulesRuleFile, rulesRuleDir)
	if err != nil {
		return err
	}

	switch rulesFormat {
	case "json":
		return outputRulesJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", rulesFormat)
	}
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSet(rulesRuleFile, rulesRuleDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range rules {
		if err := validateOne(r); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", r.ID, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", r.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rules failed validation", failed, len(rules))
	}
	fmt.Fprintf(out, "%d rules valid\n", len(rules))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func validateOne(r *rule.Rule) error {
	if err := rule.ValidateRule(r); err != nil {
		return err
	}
	return rule.CheckExamples(r)
}

// ruleListing is the subset of a rule shown by list output.
type ruleListing struct {
	ID       string         `json:"id"`
	Language lang.Language  `json:"language"`
	Severity types.Severity `json:"severity"`
	Message  string         `json:"message"`
	HasFix   bool           `json:"hasFix"`
}

func outputRulesJSON(cmd *cobra.Command, rules []*rule.Rule) error {
	listings := make([]ruleListing, 0, len(rules))
	for _, r := range rules {
		listings = append(listings, ruleListing{
			ID:       r.ID,
			Language: r.Language,
			Severity: r.Severity,
			Message:  r.Message,
			HasFix:   r.Fix != nil,
		})
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputRulesTable(cmd *cobra.Command, rules []*rule.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tLanguage\tSeverity\tFix\tMessage\n")
	fmt.Fprintf(w, "--\t--------\t--------\t---\t-------\n")

	for _, r := range rules {
		fix := ""
		if r.Fix != nil {
			fix = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Language, r.Severity, fix, r.Message)
	}

	return nil
}
