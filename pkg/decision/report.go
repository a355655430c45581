package decision

import (
	"fmt"
	"strings"

	"github.com/getmockd/stubd/pkg/condition"
)

// Evaluation is the outcome of one candidate for one request.
type Evaluation struct {
	CandidateID string
	Priority    int
	Matched     bool
	Trace       condition.Trace
}

// Report explains a decision: which candidate matched, if any, and the trace
// of every candidate in the order they were tried.
type Report struct {
	Method      string
	URI         string
	Matched     string
	Evaluations []Evaluation
	// Err is the predicate error that stopped the decision.
	Err error
}

// String renders the report as indented text, one block per candidate.
func (r *Report) String() string {
	var b strings.Builder
	r.write(&b)
	return strings.TrimSuffix(b.String(), "\n")
}

func (r *Report) write(b *strings.Builder) {
	if len(r.Evaluations) == 0 {
		b.WriteString("no rules are registered\n")
		return
	}
	for i, ev := range r.Evaluations {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "rule %q (priority %d)", ev.CandidateID, ev.Priority)
		if ev.Matched {
			b.WriteString(" matched")
		}
		b.WriteString(":\n")
		ev.Trace.WriteIndented(b, "  ")
	}
}
