package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/Xuanwo/ast-grep/pkg/enum"
	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/prefilter"
	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/review"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/store"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

var (
	scanRuleFile    string
	scanRuleDir     string
	scanFilter      string
	scanJSON        bool
	scanDatastore   string
	scanInteractive bool
	scanGit         bool
	scanRef         string
	scanMaxFileSize int64
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan code with configured rules",
	Long: `Run a set of YAML rules over files and report every match as a
diagnostic with the rule's severity and message. Rules with a fix render
their matches as diffs; --interactive reviews those fixes one at a time.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanRuleFile, "rule", "r", "", "Path to a rule file")
	scanCmd.Flags().StringVarP(&scanRuleDir, "config", "c", "", "Directory of rule files")
	scanCmd.Flags().StringVar(&scanFilter, "filter", "", "Only run rules whose ID matches the regex (comma-separated)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output matches as a JSON array")
	scanCmd.Flags().StringVar(&scanDatastore, "datastore", "", "Write matches to a SQLite datastore at this path")
	scanCmd.Flags().BoolVar(&scanInteractive, "interactive", false, "Review each available fix before applying it")
	scanCmd.Flags().BoolVar(&scanGit, "git", false, "Scan the committed tree of each path instead of the working copy")
	scanCmd.Flags().StringVar(&scanRef, "ref", "HEAD", "Commit to scan with --git")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanInteractive && scanGit {
		return fmt.Errorf("--interactive cannot rewrite a committed tree")
	}
	if scanInteractive && scanJSON {
		return fmt.Errorf("--interactive and --json are mutually exclusive")
	}

	rules, err := loadScanRules()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules to run")
	}
	pf := prefilter.New(rules)

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var st store.Store
	if scanDatastore != "" {
		st, err = store.New(store.Config{Path: scanDatastore})
		if err != nil {
			return fmt.Errorf("creating datastore: %w", err)
		}
		defer st.Close()
	}

	pr := newPrinter(cmd, scanJSON)
	if err := pr.BeforePrint(); err != nil {
		return err
	}

	var (
		fileCount    atomic.Int64
		matchCount   atomic.Int64
		errorCount   atomic.Int64
		warningCount atomic.Int64

		mu    sync.Mutex
		items []review.Item
	)

	callback := func(content []byte, path string) error {
		l, ok := lang.FromPath(path)
		if !ok {
			return nil
		}
		fileCount.Add(1)
		doc := pattern.NewDoc(content, l)

		for _, r := range pf.Filter(content) {
			if r.Language != l {
				continue
			}
			ms, err := r.Matches(doc)
			if err != nil {
				return fmt.Errorf("running rule on %s: %w", path, err)
			}
			if len(ms) == 0 {
				continue
			}
			matchCount.Add(int64(len(ms)))
			switch r.Severity {
			case types.SeverityError:
				errorCount.Add(int64(len(ms)))
			case types.SeverityWarning:
				warningCount.Add(int64(len(ms)))
			}

			diffs := fixesFor(r, ms)
			if diffs == nil {
				if err := pr.PrintRule(slices.Values(ms), path, r); err != nil {
					return err
				}
			} else {
				if err := pr.PrintRuleDiffs(slices.Values(diffs), path, r); err != nil {
					return err
				}
				if scanInteractive {
					mu.Lock()
					for _, d := range diffs {
						items = append(items, review.Item{File: path, Diff: d})
					}
					mu.Unlock()
				}
			}

			if st != nil {
				if err := storeMatches(st, r, ms, path); err != nil {
					return err
				}
			}
		}
		return nil
	}

	enums := make([]enum.Enumerator, 0, len(paths))
	for _, root := range paths {
		enums = append(enums, newScanEnumerator(root, ruleLanguages(rules)))
	}
	if err := enum.NewCombinedEnumerator(enums...).Enumerate(context.Background(), callback); err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if err := pr.AfterPrint(); err != nil {
		return err
	}

	// Summary goes to stderr when stdout carries the JSON array
	out := cmd.OutOrStdout()
	if scanJSON {
		out = cmd.ErrOrStderr()
	}
	fmt.Fprintf(out, "Scan complete: %d matches in %d files (%d errors, %d warnings)\n",
		matchCount.Load(), fileCount.Load(), errorCount.Load(), warningCount.Load())
	if scanDatastore != "" {
		fmt.Fprintf(out, "Results stored in: %s\n", scanDatastore)
	}

	if scanInteractive && len(items) > 0 {
		sortReviewItems(items)
		m, err := review.Run(items)
		if err != nil {
			return err
		}
		return applyReviewed(cmd, m)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadScanRules loads the configured rule set, applies the ID filter, and
// drops rules with severity off.
func loadScanRules() ([]*rule.Rule, error) {
	rules, err := loadRuleSet(scanRuleFile, scanRuleDir)
	if err != nil {
		return nil, err
	}
	if scanFilter != "" {
		rules, err = rule.Filter(rules, rule.FilterConfig{
			Include: rule.ParsePatterns(scanFilter),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}
	active := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Severity != types.SeverityOff {
			active = append(active, r)
		}
	}
	return active, nil
}

// loadRuleSet loads rules from a file or a directory, exactly one of which
// must be set.
func loadRuleSet(file, dir string) ([]*rule.Rule, error) {
	loader := rule.NewLoader()
	switch {
	case file != "" && dir != "":
		return nil, fmt.Errorf("--rule and --config are mutually exclusive")
	case file != "":
		rules, err := loader.LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", file, err)
		}
		return rules, nil
	case dir != "":
		rules, err := loader.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", dir, err)
		}
		return rules, nil
	default:
		return nil, fmt.Errorf("either --rule or --config is required")
	}
}

// ruleLanguages returns the sorted set of languages the rules cover, to
// keep enumeration away from files no rule can match.
func ruleLanguages(rules []*rule.Rule) []lang.Language {
	set := make(map[lang.Language]bool, len(rules))
	for _, r := range rules {
		set[r.Language] = true
	}
	langs := slices.Collect(maps.Keys(set))
	slices.Sort(langs)
	return langs
}

func newScanEnumerator(root string, langs []lang.Language) enum.Enumerator {
	config := enum.Config{
		Root:        root,
		Languages:   langs,
		MaxFileSize: scanMaxFileSize,
		Workers:     workers,
	}
	if scanGit {
		e := enum.NewGitEnumerator(config)
		e.CommitRef = scanRef
		return e
	}
	return enum.NewFilesystemEnumerator(config)
}

// fixesFor renders a rule's fix template for each match, or nil when the
// rule has none.
func fixesFor(r *rule.Rule, ms []*pattern.NodeMatch) []printer.Diff {
	diffs := make([]printer.Diff, 0, len(ms))
	for _, m := range ms {
		fix, ok := r.FixFor(m)
		if !ok {
			return nil
		}
		diffs = append(diffs, printer.Diff{NodeMatch: m, Replacement: fix})
	}
	return diffs
}

func storeMatches(st store.Store, r *rule.Rule, ms []*pattern.NodeMatch, path string) error {
	for _, m := range ms {
		rec := printer.NewRuleMatchRecord(m, path, r)
		if fix, ok := r.FixFor(m); ok {
			rec.Replacement = &fix
		}
		if err := st.AddRuleMatch(rec); err != nil {
			return fmt.Errorf("storing match: %w", err)
		}
	}
	return nil
}
