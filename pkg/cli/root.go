package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/decision"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCommand builds the stubd command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stubd",
		Short: "stubd is an embeddable stub HTTP server",
		Long: `stubd serves canned HTTP responses chosen by declarative rules.

Each rule has an id, a priority and a condition tree over the request's
method, path, headers, query and body. The lowest-priority matching rule
answers; a request no rule matches gets a 418 that explains why every rule
failed.`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
	}
	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newExplainCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Main runs stubd with the process arguments and standard streams.
func Main() int {
	return Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func addRulesFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "file", "f", "", "Path to the rule file (YAML) [required]")
	_ = cmd.MarkFlagRequired("file")
}

// loadRules loads and builds a rule file.
func loadRules(path string) (*config.RuleFile, *decision.Decision, decision.Fallback, error) {
	rf, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	d, fb, err := rf.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid rules in %s: %w", path, err)
	}
	return rf, d, fb, nil
}
