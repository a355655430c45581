// Package decision picks the response for a request from a priority-ordered
// set of rules, and builds the fallback response when none of them match.
package decision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/request"
	"github.com/getmockd/stubd/pkg/response"
)

// Build errors.
var (
	ErrBlankID           = errors.New("candidate id is blank")
	ErrNilProducer       = errors.New("candidate response producer is nil")
	ErrNilCandidate      = errors.New("candidate is nil")
	ErrDuplicateID       = errors.New("duplicate candidate id")
	ErrDuplicatePriority = errors.New("duplicate candidate priority")
)

// Producer builds the response of a matched candidate.
type Producer func(v *request.View) (*response.Response, error)

// RespondWith adapts a response spec to a Producer.
func RespondWith(spec *response.Spec) Producer {
	if spec == nil {
		return nil
	}
	return spec.Produce
}

// Candidate is one rule: a condition and the response to send when it holds.
type Candidate struct {
	id       string
	priority int
	cond     condition.Condition
	producer Producer
}

// NewCandidate validates and builds a candidate. The condition must be a
// valid tree; AlwaysTrue is accepted as the whole condition.
func NewCandidate(id string, priority int, cond condition.Condition, producer Producer) (*Candidate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrBlankID
	}
	if err := condition.Validate(cond); err != nil {
		return nil, fmt.Errorf("candidate %q: %w", id, err)
	}
	if producer == nil {
		return nil, fmt.Errorf("candidate %q: %w", id, ErrNilProducer)
	}
	return &Candidate{id: id, priority: priority, cond: cond, producer: producer}, nil
}

// MustCandidate is NewCandidate that panics on error.
func MustCandidate(id string, priority int, cond condition.Condition, producer Producer) *Candidate {
	c, err := NewCandidate(id, priority, cond, producer)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the candidate id.
func (c *Candidate) ID() string { return c.id }

// Priority returns the candidate priority. Lower numbers are tried first.
func (c *Candidate) Priority() int { return c.priority }

// Condition returns the candidate's condition tree.
func (c *Candidate) Condition() condition.Condition { return c.cond }

// Produce runs the candidate's response producer. A panicking producer is
// reported as an error.
func (c *Candidate) Produce(v *request.View) (res *response.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("candidate %q response panicked: %v", c.id, r)
		}
	}()
	res, err = c.producer(v)
	if err != nil {
		return nil, fmt.Errorf("candidate %q: %w", c.id, err)
	}
	if res == nil {
		return nil, fmt.Errorf("candidate %q: producer returned no response", c.id)
	}
	return res, nil
}
