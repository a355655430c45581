package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/cli/internal/parse"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/request"
)

type explainFlags struct {
	file    string
	method  string
	url     string
	headers []string
	data    string
	trace   bool
}

func newExplainCmd() *cobra.Command {
	var f explainFlags
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Evaluate one request against a rule file offline",
		Long: `Evaluate one request against a rule file without opening a port.

Prints the response the server would send. A request no rule matches
gets the 418 report listing every rule's evaluation trace.`,
		Example: `  stubd explain -f rules.yaml --method POST --url /users \
    -H 'Content-Type: application/json' --data '{"name": "ada"}'

  # Show every rule's trace even when one matches
  stubd explain -f rules.yaml --url /users/42 --trace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplain(cmd, &f)
		},
	}
	addRulesFlag(cmd, &f.file)
	cmd.Flags().StringVarP(&f.method, "method", "X", http.MethodGet, "Request method")
	cmd.Flags().StringVar(&f.url, "url", "/", "Request URI (path and query)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "Print every rule's evaluation trace")
	return cmd
}

func runExplain(cmd *cobra.Command, f *explainFlags) error {
	out := cmd.OutOrStdout()

	_, d, fb, err := loadRules(f.file)
	if err != nil {
		return err
	}
	header, err := parse.Headers(f.headers)
	if err != nil {
		return err
	}
	v, err := request.New(strings.ToUpper(f.method), f.url, header, []byte(f.data))
	if err != nil {
		return err
	}

	res := engine.NewExecutionContext(d, fb).Dispatch(v)

	if res.Outcome == engine.OutcomeHit {
		fmt.Fprintf(out, "matched rule %q\n", res.Candidate)
	} else {
		fmt.Fprintln(out, "no rule matched")
	}
	if res.Err != nil {
		output.Warn(cmd.ErrOrStderr(), "%v", res.Err)
	}
	if f.trace {
		fmt.Fprintf(out, "\n%s\n", res.Report)
	}
	fmt.Fprintln(out)
	output.Response(out, res.Response)
	return nil
}
