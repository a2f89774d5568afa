package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/serve"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

var (
	serveRuleFile string
	serveRuleDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming server for editor integration",
	Long: `Run ast-grep as a long-lived streaming server that accepts search and
scan requests via stdin and outputs matches via stdout using NDJSON.

Search requests compile their pattern per request. Scan requests run the
rules loaded at startup with --rule or --config; without either flag the
server starts with no rules and answers search requests only. The process
runs until stdin closes or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveRuleFile, "rule", "r", "", "Path to a rule file")
	serveCmd.Flags().StringVarP(&serveRuleDir, "config", "c", "", "Directory of rule files")
}

func runServe(cmd *cobra.Command, args []string) error {
	var rules []*rule.Rule
	if serveRuleFile != "" || serveRuleDir != "" {
		loaded, err := loadRuleSet(serveRuleFile, serveRuleDir)
		if err != nil {
			return err
		}
		for _, r := range loaded {
			if r.Severity != types.SeverityOff {
				rules = append(rules, r)
			}
		}
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	// Create and run server
	srv := serve.NewServer(rules, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
