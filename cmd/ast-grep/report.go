package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/sarif"
	"github.com/Xuanwo/ast-grep/pkg/store"
)

var (
	reportDatastore string
	reportFormat    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Replay matches from a datastore",
	Long: `Read matches stored by a previous scan --datastore run and render them
again, as diagnostics or as the same JSON array a live scan would emit.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "ast-grep.db", "Path to the scan datastore")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
}

func runReport(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	records, err := s.RuleMatches()
	if err != nil {
		return fmt.Errorf("reading matches: %w", err)
	}

	switch reportFormat {
	case "json":
		p := printer.NewJSON(cmd.OutOrStdout())
		if err := p.BeforePrint(); err != nil {
			return err
		}
		if err := p.PrintRuleRecords(slices.Values(records)); err != nil {
			return err
		}
		return p.AfterPrint()
	case "sarif":
		data, err := sarif.Build(records).ToJSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	case "human":
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored matches")
			return nil
		}
		p := printer.NewColored(cmd.OutOrStdout(), colorEnabled())
		if err := p.PrintRuleRecords(slices.Values(records)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d matches from %s\n", len(records), reportDatastore)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}
