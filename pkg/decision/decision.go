package decision

import (
	"fmt"
	"sort"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/request"
)

// Registry collects candidates and rejects duplicate ids and priorities as
// they are registered. It is not safe for concurrent use.
type Registry struct {
	candidates []*Candidate
	ids        map[string]struct{}
	priorities map[int]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:        make(map[string]struct{}),
		priorities: make(map[int]string),
	}
}

// Register adds c. It fails if another candidate already uses c's id or
// priority; the error names the conflicting id.
func (r *Registry) Register(c *Candidate) error {
	if c == nil {
		return ErrNilCandidate
	}
	if _, ok := r.ids[c.id]; ok {
		return fmt.Errorf("%w: %q is already registered", ErrDuplicateID, c.id)
	}
	if owner, ok := r.priorities[c.priority]; ok {
		return fmt.Errorf("%w: candidate %q uses priority %d, already taken by %q",
			ErrDuplicatePriority, c.id, c.priority, owner)
	}
	r.ids[c.id] = struct{}{}
	r.priorities[c.priority] = c.id
	r.candidates = append(r.candidates, c)
	return nil
}

// Add builds a candidate and registers it.
func (r *Registry) Add(id string, priority int, cond condition.Condition, producer Producer) error {
	c, err := NewCandidate(id, priority, cond, producer)
	if err != nil {
		return err
	}
	return r.Register(c)
}

// Len returns the number of registered candidates.
func (r *Registry) Len() int { return len(r.candidates) }

// Decision freezes the registered candidates. Later registrations do not
// affect the returned Decision.
func (r *Registry) Decision() *Decision {
	sorted := make([]*Candidate, len(r.candidates))
	copy(sorted, r.candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return &Decision{candidates: sorted}
}

// New registers every candidate and returns the resulting Decision.
func New(candidates ...*Candidate) (*Decision, error) {
	r := NewRegistry()
	for _, c := range candidates {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r.Decision(), nil
}

// MustNew is New that panics on error.
func MustNew(candidates ...*Candidate) *Decision {
	d, err := New(candidates...)
	if err != nil {
		panic(err)
	}
	return d
}

// Decision is an immutable list of candidates in ascending priority order.
type Decision struct {
	candidates []*Candidate
}

// Empty is a Decision with no candidates; every request falls back.
var Empty = &Decision{}

// Candidates returns the candidates in the order they are tried.
func (d *Decision) Candidates() []*Candidate {
	return append([]*Candidate(nil), d.candidates...)
}

// Len returns the number of candidates.
func (d *Decision) Len() int { return len(d.candidates) }

// Decide evaluates the candidates in priority order and returns the first
// that matches, or nil. The report records every candidate, including those
// after the winner, which are traced without running their predicates.
//
// A predicate error stops the decision: no candidate is returned and the
// error is set on the report.
func (d *Decision) Decide(v *request.View) (*Candidate, *Report) {
	report := &Report{Method: v.Method(), URI: v.RequestURI(), Evaluations: make([]Evaluation, 0, len(d.candidates))}
	var winner *Candidate
	for _, c := range d.candidates {
		if winner != nil || report.Err != nil {
			report.Evaluations = append(report.Evaluations, skipped(c))
			continue
		}
		res := condition.Evaluate(c.cond, v)
		report.Evaluations = append(report.Evaluations, Evaluation{
			CandidateID: c.id,
			Priority:    c.priority,
			Matched:     res.Matched,
			Trace:       res.Trace,
		})
		switch {
		case res.Err != nil:
			report.Err = fmt.Errorf("candidate %q: %w", c.id, res.Err)
		case res.Matched:
			winner = c
			report.Matched = c.id
		}
	}
	return winner, report
}

func skipped(c *Candidate) Evaluation {
	return Evaluation{
		CandidateID: c.id,
		Priority:    c.priority,
		Trace:       condition.Skip(c.cond),
	}
}
