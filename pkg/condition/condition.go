// Package condition implements the immutable predicate language used to
// decide whether a rule applies to a request.
//
// A Condition is a closed sum type: a Leaf predicate, an And or Or of other
// conditions, a Not of a single leaf, or AlwaysTrue. Trees are validated when
// they are built, so a tree that exists is a legal tree:
//
//   - And and Or need at least one child
//   - Not wraps only a Leaf
//   - AlwaysTrue is only valid as the whole condition of a rule; it cannot
//     be negated or combined
//
// Evaluate walks a tree against a request.View with short-circuiting and
// returns a Trace of every node, including the ones it skipped.
package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/stubd/pkg/request"
)

// Build errors.
var (
	ErrEmptyCombinator   = errors.New("combinator requires at least one condition")
	ErrIllegalNegation   = errors.New("only a leaf condition can be negated")
	ErrMisplacedAlways   = errors.New("AlwaysTrue can only be used as the sole condition of a rule")
	ErrNilCondition      = errors.New("condition is nil")
	ErrInvalidLeaf       = errors.New("invalid leaf condition")
	ErrUnknownCondition  = errors.New("unknown condition type")
	ErrInvalidExpression = errors.New("invalid condition expression")
)

// Predicate tests a request. Returning an error aborts evaluation of the
// rule set for that request.
type Predicate func(v *request.View) (bool, error)

// Condition is a node of a condition tree. The set of implementations is
// closed: Leaf, Not, And, Or and AlwaysTrue.
type Condition interface {
	isCondition()
}

// Leaf is a single named predicate.
type Leaf struct {
	group       string
	description string
	predicate   Predicate
}

// Not negates a single leaf.
type Not struct {
	leaf Leaf
}

// And is true when every child is true.
type And struct {
	children []Condition
}

// Or is true when any child is true.
type Or struct {
	children []Condition
}

type alwaysTrue struct{}

// AlwaysTrue matches every request.
var AlwaysTrue Condition = alwaysTrue{}

func (Leaf) isCondition()       {}
func (Not) isCondition()        {}
func (And) isCondition()        {}
func (Or) isCondition()         {}
func (alwaysTrue) isCondition() {}

// NewLeaf builds a leaf. group names the request facet the predicate reads
// (e.g. "Headers"), description is what the trace prints (e.g.
// `containsKey("key1")`).
func NewLeaf(group, description string, predicate Predicate) (Leaf, error) {
	if strings.TrimSpace(group) == "" {
		return Leaf{}, fmt.Errorf("%w: group is required", ErrInvalidLeaf)
	}
	if strings.TrimSpace(description) == "" {
		return Leaf{}, fmt.Errorf("%w: description is required for group %s", ErrInvalidLeaf, group)
	}
	if predicate == nil {
		return Leaf{}, fmt.Errorf("%w: predicate is required for %s %s", ErrInvalidLeaf, group, description)
	}
	return Leaf{group: group, description: description, predicate: predicate}, nil
}

// Group returns the facet name of the leaf.
func (l Leaf) Group() string { return l.group }

// Description returns the human-readable form of the leaf.
func (l Leaf) Description() string { return l.description }

// Negate returns Not(l). It cannot fail because l is a leaf.
func (l Leaf) Negate() Not { return Not{leaf: l} }

// Leaf returns the negated leaf.
func (n Not) Leaf() Leaf { return n.leaf }

// Description returns the negated description, e.g. not(containsKey("a")).
func (n Not) Description() string { return "not(" + n.leaf.description + ")" }

// Children returns a copy of the child conditions.
func (a And) Children() []Condition { return append([]Condition(nil), a.children...) }

// Children returns a copy of the child conditions.
func (o Or) Children() []Condition { return append([]Condition(nil), o.children...) }

// NewNot negates a condition. Only leaves can be negated.
func NewNot(c Condition) (Not, error) {
	switch n := c.(type) {
	case Leaf:
		if err := validateLeaf(n); err != nil {
			return Not{}, err
		}
		return Not{leaf: n}, nil
	case nil:
		return Not{}, ErrNilCondition
	case alwaysTrue:
		return Not{}, fmt.Errorf("%w: cannot negate AlwaysTrue", ErrIllegalNegation)
	case And:
		return Not{}, fmt.Errorf("%w: cannot negate AND", ErrIllegalNegation)
	case Or:
		return Not{}, fmt.Errorf("%w: cannot negate OR", ErrIllegalNegation)
	case Not:
		return Not{}, fmt.Errorf("%w: cannot negate NOT", ErrIllegalNegation)
	default:
		return Not{}, fmt.Errorf("%w: %T", ErrUnknownCondition, c)
	}
}

// NewAnd combines conditions with logical AND.
func NewAnd(children ...Condition) (And, error) {
	if err := validateChildren("AND", children); err != nil {
		return And{}, err
	}
	return And{children: append([]Condition(nil), children...)}, nil
}

// NewOr combines conditions with logical OR.
func NewOr(children ...Condition) (Or, error) {
	if err := validateChildren("OR", children); err != nil {
		return Or{}, err
	}
	return Or{children: append([]Condition(nil), children...)}, nil
}

func validateChildren(kind string, children []Condition) error {
	if len(children) == 0 {
		return fmt.Errorf("%w: %s()", ErrEmptyCombinator, kind)
	}
	for i, c := range children {
		if _, ok := c.(alwaysTrue); ok {
			return fmt.Errorf("%w: found inside %s at position %d", ErrMisplacedAlways, kind, i)
		}
		if err := validateNode(c); err != nil {
			return fmt.Errorf("%s child %d: %w", kind, i, err)
		}
	}
	return nil
}

// Validate checks a whole tree as the top-level condition of a rule. Trees
// built through the constructors always pass; zero-value nodes built as
// composite literals do not.
func Validate(c Condition) error {
	if _, ok := c.(alwaysTrue); ok {
		return nil
	}
	return validateNode(c)
}

func validateNode(c Condition) error {
	switch n := c.(type) {
	case nil:
		return ErrNilCondition
	case alwaysTrue:
		return ErrMisplacedAlways
	case Leaf:
		return validateLeaf(n)
	case Not:
		return validateLeaf(n.leaf)
	case And:
		return validateChildren("AND", n.children)
	case Or:
		return validateChildren("OR", n.children)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCondition, c)
	}
}

func validateLeaf(l Leaf) error {
	if l.predicate == nil || l.group == "" || l.description == "" {
		return fmt.Errorf("%w: leaf was not built with NewLeaf", ErrInvalidLeaf)
	}
	return nil
}

// Must panics if err is non-nil. It is intended for rule tables in tests
// and examples where a build error is a programming mistake.
func Must[C Condition](c C, err error) C {
	if err != nil {
		panic(err)
	}
	return c
}
