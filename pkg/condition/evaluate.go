package condition

import (
	"fmt"

	"github.com/getmockd/stubd/pkg/request"
)

// Result is the outcome of evaluating a condition tree.
type Result struct {
	Matched bool
	Trace   Trace
	// Err is the first predicate error. When set, Matched is false and the
	// nodes after the failing leaf are traced as not evaluated.
	Err error
}

// Evaluate runs c against v.
//
// AND stops running predicates at the first false child and OR at the first
// true child, but the skipped children are still walked so the trace always
// has one entry per node of the tree.
func Evaluate(c Condition, v *request.View) Result {
	e := evaluator{view: v}
	trace := e.eval(c, true)
	return Result{Matched: trace.Status == StatusTrue, Trace: trace, Err: e.err}
}

// Skip traces c without running any predicate; every node is reported as
// not evaluated.
func Skip(c Condition) Trace {
	e := evaluator{}
	return e.eval(c, false)
}

type evaluator struct {
	view *request.View
	err  error
}

// eval evaluates c when run is true and otherwise only records its shape.
func (e *evaluator) eval(c Condition, run bool) Trace {
	switch n := c.(type) {
	case alwaysTrue:
		t := Trace{Kind: KindAlwaysTrue, Status: StatusNotEvaluated}
		if run {
			t.Status = StatusTrue
		}
		return t

	case Leaf:
		t := Trace{Kind: KindLeaf, Group: n.group, Description: n.description, Status: StatusNotEvaluated}
		if run {
			t.Status, t.Err = e.runLeaf(n)
		}
		return t

	case Not:
		t := Trace{Kind: KindNot, Group: n.leaf.group, Description: n.Description(), Status: StatusNotEvaluated}
		if run {
			t.Status, t.Err = e.runLeaf(n.leaf)
			switch t.Status {
			case StatusTrue:
				t.Status = StatusFalse
			case StatusFalse:
				t.Status = StatusTrue
			}
		}
		return t

	case And:
		return e.combine(KindAnd, n.children, run, StatusFalse)

	case Or:
		return e.combine(KindOr, n.children, run, StatusTrue)

	default:
		// Unreachable for validated trees.
		e.fail(fmt.Errorf("%w: %T", ErrUnknownCondition, c))
		return Trace{Kind: KindLeaf, Group: "?", Description: fmt.Sprintf("%T", c), Status: StatusError, Err: e.err}
	}
}

// combine evaluates AND (decisive=false) and OR (decisive=true) nodes.
// The first child whose status equals decisive settles the node.
func (e *evaluator) combine(kind Kind, children []Condition, run bool, decisive Status) Trace {
	t := Trace{Kind: kind, Status: StatusNotEvaluated, Children: make([]Trace, 0, len(children))}
	if !run {
		for _, c := range children {
			t.Children = append(t.Children, e.eval(c, false))
		}
		return t
	}

	settled := false
	result := StatusTrue
	if decisive == StatusTrue {
		result = StatusFalse
	}
	for _, c := range children {
		active := !settled && e.err == nil
		child := e.eval(c, active)
		t.Children = append(t.Children, child)
		if !active {
			continue
		}
		switch child.Status {
		case StatusError:
			result = StatusError
			settled = true
		case decisive:
			result = decisive
			settled = true
		}
	}
	t.Status = result
	return t
}

func (e *evaluator) runLeaf(l Leaf) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %s panicked: %v", l.group, l.description, r)
			status = StatusError
			e.fail(err)
		}
	}()

	matched, err := l.predicate(e.view)
	if err != nil {
		err = fmt.Errorf("%s %s: %w", l.group, l.description, err)
		e.fail(err)
		return StatusError, err
	}
	if matched {
		return StatusTrue, nil
	}
	return StatusFalse, nil
}

func (e *evaluator) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
