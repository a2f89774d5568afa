package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Xuanwo/ast-grep/pkg/printer"
)

var (
	colorMode string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "ast-grep",
	Short: "ast-grep - structural code search and rewrite",
	Long: `ast-grep searches code by structure instead of text. A pattern is a code
fragment with metavariables: $NAME matches one expression, $$$NAME matches
a run of them. Patterns drive one-off searches and rewrites (run) or whole
rule sets with severities, messages, and fixes (scan).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent scan workers (0 = number of CPUs)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// colorEnabled resolves the --color tri-state. In auto mode color is on
// only for a terminal stdout without NO_COLOR set.
func colorEnabled() bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

// newPrinter picks the output printer for a command: one JSON array for
// machine use, colored text otherwise.
func newPrinter(cmd *cobra.Command, jsonOut bool) printer.Printer {
	if jsonOut {
		return printer.NewJSON(cmd.OutOrStdout())
	}
	return printer.NewColored(cmd.OutOrStdout(), colorEnabled())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
