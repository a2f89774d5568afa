package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/Xuanwo/ast-grep/pkg/enum"
	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/review"
	"github.com/Xuanwo/ast-grep/pkg/rule"
)

var (
	runPattern     string
	runLang        string
	runRewrite     string
	runJSON        bool
	runUpdateAll   bool
	runInteractive bool
)

var runCmd = &cobra.Command{
	Use:   "run -p PATTERN [paths...]",
	Short: "Search code for a structural pattern",
	Long: `Search files for a structural pattern and optionally rewrite matches.

Without --rewrite, matches print as located snippets (or one JSON array
with --json). With --rewrite, matches print as diffs; --update-all writes
them to the files directly and --interactive reviews them one at a time.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runPattern, "pattern", "p", "", "Pattern to search for (required)")
	runCmd.Flags().StringVarP(&runLang, "lang", "l", "", "Limit the search to one language")
	runCmd.Flags().StringVar(&runRewrite, "rewrite", "", "Rewrite template applied to every match")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output matches as a JSON array")
	runCmd.Flags().BoolVar(&runUpdateAll, "update-all", false, "Apply all rewrites to the files in place")
	runCmd.Flags().BoolVar(&runInteractive, "interactive", false, "Review each rewrite before applying it")
	_ = runCmd.MarkFlagRequired("pattern")
}

func runRun(cmd *cobra.Command, args []string) error {
	if (runUpdateAll || runInteractive) && runRewrite == "" {
		return fmt.Errorf("--update-all and --interactive require --rewrite")
	}
	if runUpdateAll && runInteractive {
		return fmt.Errorf("--update-all and --interactive are mutually exclusive")
	}
	if runInteractive && runJSON {
		return fmt.Errorf("--interactive and --json are mutually exclusive")
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	langs, err := searchLanguages(runLang)
	if err != nil {
		return err
	}
	patterns := make(map[lang.Language]*pattern.Pattern, len(langs))
	for _, l := range langs {
		p, err := pattern.Compile(runPattern, l)
		if err != nil {
			return fmt.Errorf("compiling pattern: %w", err)
		}
		patterns[l] = p
	}

	pr := newPrinter(cmd, runJSON)
	if err := pr.BeforePrint(); err != nil {
		return err
	}

	var (
		editedFiles atomic.Int64
		rewrites    atomic.Int64

		mu    sync.Mutex
		items []review.Item
	)

	callback := func(content []byte, path string) error {
		l, ok := lang.FromPath(path)
		if !ok {
			return nil
		}
		p, ok := patterns[l]
		if !ok {
			return nil
		}
		doc := pattern.NewDoc(content, l)

		if runRewrite == "" {
			return pr.PrintMatches(p.MatchAll(doc), path)
		}

		ms := slices.Collect(p.MatchAll(doc))
		if len(ms) == 0 {
			return nil
		}
		diffs := make([]printer.Diff, 0, len(ms))
		for _, m := range ms {
			diffs = append(diffs, printer.Diff{NodeMatch: m, Replacement: rule.Render(runRewrite, m)})
		}

		switch {
		case runUpdateAll:
			if err := writeFileKeepMode(path, printer.Apply(content, diffs)); err != nil {
				return err
			}
			editedFiles.Add(1)
			rewrites.Add(int64(len(diffs)))
			return nil
		case runInteractive:
			mu.Lock()
			for _, d := range diffs {
				items = append(items, review.Item{File: path, Diff: d})
			}
			mu.Unlock()
			return nil
		default:
			return pr.PrintDiffs(slices.Values(diffs), path)
		}
	}

	enums := make([]enum.Enumerator, 0, len(paths))
	for _, root := range paths {
		enums = append(enums, enum.NewFilesystemEnumerator(enum.Config{
			Root:      root,
			Languages: langs,
			Workers:   workers,
		}))
	}
	if err := enum.NewCombinedEnumerator(enums...).Enumerate(context.Background(), callback); err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if err := pr.AfterPrint(); err != nil {
		return err
	}

	if runInteractive && len(items) > 0 {
		sortReviewItems(items)
		m, err := review.Run(items)
		if err != nil {
			return err
		}
		return applyReviewed(cmd, m)
	}
	if runUpdateAll {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d rewrites across %d files\n", rewrites.Load(), editedFiles.Load())
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// searchLanguages resolves the --lang flag: one language when given, every
// supported language otherwise.
func searchLanguages(name string) ([]lang.Language, error) {
	if name == "" {
		return lang.All(), nil
	}
	l, err := lang.Parse(name)
	if err != nil {
		return nil, err
	}
	return []lang.Language{l}, nil
}

// sortReviewItems orders review items by file and position, so concurrent
// enumeration does not shuffle the session.
func sortReviewItems(items []review.Item) {
	slices.SortFunc(items, func(a, b review.Item) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		return a.Diff.NodeMatch.Span().Start - b.Diff.NodeMatch.Span().Start
	})
}

// applyReviewed writes every rewrite accepted during a review session back
// to its file.
func applyReviewed(cmd *cobra.Command, m review.Model) error {
	if m.Aborted() {
		fmt.Fprintln(cmd.OutOrStdout(), "review aborted, no rewrites applied")
		return nil
	}
	applied, files := 0, 0
	for file, diffs := range m.Accepted() {
		content := diffs[0].NodeMatch.Doc().Content()
		if err := writeFileKeepMode(file, printer.Apply(content, diffs)); err != nil {
			return err
		}
		applied += len(diffs)
		files++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d rewrites across %d files\n", applied, files)
	return nil
}

// writeFileKeepMode rewrites a file in place, preserving its permission
// bits.
func writeFileKeepMode(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stating %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
