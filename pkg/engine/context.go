package engine

import (
	"fmt"

	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/request"
	"github.com/getmockd/stubd/pkg/response"
	"github.com/getmockd/stubd/pkg/stats"
)

// ExecutionContext is one complete configuration a listener can serve: the
// decision, the fallback for unmatched requests, and the statistics that
// count both.
type ExecutionContext struct {
	name     string
	decision *decision.Decision
	fallback decision.Fallback
	stats    *stats.Statistics
}

// NewExecutionContext builds a context with fresh statistics. A nil decision
// matches nothing and a nil fallback is the Teapot.
func NewExecutionContext(d *decision.Decision, fb decision.Fallback) *ExecutionContext {
	return newExecutionContext(metrics.ContextOriginal, d, fb)
}

func newExecutionContext(name string, d *decision.Decision, fb decision.Fallback) *ExecutionContext {
	if d == nil {
		d = decision.Empty
	}
	if fb == nil {
		fb = decision.RejectNonMatching()
	}
	return &ExecutionContext{name: name, decision: d, fallback: fb, stats: stats.New()}
}

// Decision returns the context's decision.
func (c *ExecutionContext) Decision() *decision.Decision { return c.decision }

// Statistics returns a snapshot of the context's counters.
func (c *ExecutionContext) Statistics() stats.Snapshot { return c.stats.Snapshot() }

// Outcome classifies a dispatched request.
type Outcome string

// Outcomes.
const (
	OutcomeHit  Outcome = metrics.OutcomeHit
	OutcomeMiss Outcome = metrics.OutcomeMiss
)

// Dispatch is the result of serving one request.
type Dispatch struct {
	Response *response.Response
	Outcome  Outcome
	// Candidate is the matched candidate id, empty on a miss.
	Candidate string
	// Err is a predicate or producer failure that was turned into a 418.
	Err    error
	Report *decision.Report
}

// Dispatch decides and produces the response for v, counting exactly one
// hit or one miss. It never fails: predicate and producer errors become
// 418 diagnostic responses.
//
// A matched candidate counts as a hit even when its producer fails. A
// predicate error counts as a miss and is answered by the Teapot, whatever
// the configured fallback.
func (c *ExecutionContext) Dispatch(v *request.View) (d Dispatch) {
	defer func() {
		if r := recover(); r != nil {
			if d.Outcome == "" {
				c.stats.IncrementMiss()
				d.Outcome = OutcomeMiss
			}
			d.Err = fmt.Errorf("dispatch panicked: %v", r)
			d.Response = response.Diagnostic(d.Err)
		}
	}()

	winner, report := c.decision.Decide(v)
	d.Report = report

	if winner != nil {
		c.stats.IncrementHit()
		d.Outcome = OutcomeHit
		d.Candidate = winner.ID()
		res, err := winner.Produce(v)
		if err != nil {
			d.Err = err
			d.Response = response.Diagnostic(err)
			return d
		}
		d.Response = res
		return d
	}

	c.stats.IncrementMiss()
	d.Outcome = OutcomeMiss
	if report.Err != nil {
		d.Err = report.Err
		d.Response = decision.Run(decision.Teapot, v, report)
		return d
	}
	d.Response = decision.Run(c.fallback, v, report)
	return d
}
