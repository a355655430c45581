package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/getmockd/stubd/pkg/config"
)

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a rule file without starting a server",
		Long: `Validate a rule file without starting a server.

This command checks:
  - YAML syntax and unknown keys
  - every rule's condition tree, response and priority
  - duplicate rule ids and priorities
  - the server section`,
		Example: `  stubd validate -f rules.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, path)
		},
	}
	addRulesFlag(cmd, &path)
	return cmd
}

func runValidate(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	rf, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	var errs error
	if _, _, err := rf.Build(); err != nil {
		errs = multierr.Append(errs, err)
	}
	cfg := rf.ServerConfig()
	for _, err := range multierr.Errors(cfg.Validate()) {
		errs = multierr.Append(errs, fmt.Errorf("server: %w", err))
	}

	if errs != nil {
		all := multierr.Errors(errs)
		fmt.Fprintln(out, "Validation failed:")
		for _, e := range all {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(all))
	}

	fmt.Fprintf(out, "%s: %d rule(s) are valid.\n", path, len(rf.Rules))
	return nil
}
