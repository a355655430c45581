package testing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/response"
)

// RuleBuilder builds a candidate using a fluent API.
type RuleBuilder struct {
	id       string
	priority int
	conds    []condition.Condition
	status   int
	opts     []response.Option
	headers  http.Header
	producer decision.Producer
	err      error // First error encountered during building
}

// Rule starts a rule with the given id and priority. Without conditions it
// matches every request; without a response it answers 200 with no body.
func Rule(id string, priority int) *RuleBuilder {
	return &RuleBuilder{id: id, priority: priority, status: http.StatusOK, headers: http.Header{}}
}

// setError records the first error encountered during building.
// Subsequent errors are ignored (first error wins pattern).
func (b *RuleBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RuleBuilder) Err() error {
	return b.err
}

// When adds a condition.
func (b *RuleBuilder) When(c condition.Condition) *RuleBuilder {
	if c == nil {
		b.setError(errors.New("When: condition is nil"))
		return b
	}
	b.conds = append(b.conds, c)
	return b
}

func (b *RuleBuilder) whenLeaf(name string, leaf condition.Leaf, err error) *RuleBuilder {
	if err != nil {
		b.setError(fmt.Errorf("%s: %w", name, err))
		return b
	}
	return b.When(leaf)
}

// Matching requires the method and path. An empty method matches any
// method and an empty path any path; a path containing {name} or * is a
// pattern.
func (b *RuleBuilder) Matching(method, path string) *RuleBuilder {
	if method != "" {
		b.When(condition.MethodIs(method))
	}
	switch {
	case path == "":
		return b
	case strings.ContainsAny(path, "{*"):
		return b.When(condition.PathMatches(path))
	}
	return b.When(condition.PathEquals(path))
}

// WithRequestHeader requires a request header value.
func (b *RuleBuilder) WithRequestHeader(name, value string) *RuleBuilder {
	return b.When(condition.HeaderEquals(name, value))
}

// WithQueryParam requires a query parameter value.
func (b *RuleBuilder) WithQueryParam(name, value string) *RuleBuilder {
	return b.When(condition.QueryEquals(name, value))
}

// WithBodyContains requires the request body to contain substr.
func (b *RuleBuilder) WithBodyContains(substr string) *RuleBuilder {
	return b.When(condition.BodyContains(substr))
}

// WithJSONPath requires the JSONPath to select a value equal to expected.
func (b *RuleBuilder) WithJSONPath(path string, expected any) *RuleBuilder {
	leaf, err := condition.JSONPathEquals(path, expected)
	return b.whenLeaf("WithJSONPath", leaf, err)
}

// WithExpr requires an expr-lang expression over the request to be true.
func (b *RuleBuilder) WithExpr(expression string) *RuleBuilder {
	leaf, err := condition.Expr(expression)
	return b.whenLeaf("WithExpr", leaf, err)
}

// WithStatus sets the response status code. Default is 200 (OK).
func (b *RuleBuilder) WithStatus(status int) *RuleBuilder {
	b.status = status
	return b
}

// WithBody sets a plain text response body.
func (b *RuleBuilder) WithBody(body string) *RuleBuilder {
	b.opts = append(b.opts, response.WithText(body))
	return b
}

// WithJSON sets the response body as JSON.
// Automatically sets Content-Type to application/json.
func (b *RuleBuilder) WithJSON(body any) *RuleBuilder {
	b.opts = append(b.opts, response.WithJSON(body))
	return b
}

// WithEcho answers with the request body.
func (b *RuleBuilder) WithEcho() *RuleBuilder {
	b.opts = append(b.opts, response.WithEcho())
	return b
}

// WithHeader adds a response header.
func (b *RuleBuilder) WithHeader(key, value string) *RuleBuilder {
	b.headers.Add(key, value)
	return b
}

// RespondWith replaces the built response with a custom producer.
func (b *RuleBuilder) RespondWith(p decision.Producer) *RuleBuilder {
	b.producer = p
	return b
}

// Build returns the candidate, or the first error met while building.
func (b *RuleBuilder) Build() (*decision.Candidate, error) {
	if b.err != nil {
		return nil, fmt.Errorf("rule %q: %w", b.id, b.err)
	}

	var cond condition.Condition = condition.AlwaysTrue
	switch len(b.conds) {
	case 0:
	case 1:
		cond = b.conds[0]
	default:
		and, err := condition.NewAnd(b.conds...)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", b.id, err)
		}
		cond = and
	}

	producer := b.producer
	if producer == nil {
		opts := b.opts
		if len(b.headers) > 0 {
			opts = append(opts, response.WithHeaderPolicy(response.ReplaceHeaders(b.headers)))
		}
		spec, err := response.New(b.status, opts...)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", b.id, err)
		}
		producer = decision.RespondWith(spec)
	}
	return decision.NewCandidate(b.id, b.priority, cond, producer)
}

// Decision builds every rule into a decision, failing the test on the
// first error.
func Decision(t testing.TB, rules ...*RuleBuilder) *decision.Decision {
	t.Helper()
	reg := decision.NewRegistry()
	for _, rule := range rules {
		c, err := rule.Build()
		if err == nil {
			err = reg.Register(c)
		}
		if err != nil {
			t.Fatalf("invalid stub rule: %v", err)
		}
	}
	return reg.Decision()
}
