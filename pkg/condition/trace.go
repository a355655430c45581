package condition

import (
	"strings"
)

// Kind identifies the node type a Trace entry describes.
type Kind int

// Node kinds.
const (
	KindLeaf Kind = iota
	KindNot
	KindAnd
	KindOr
	KindAlwaysTrue
)

// String returns the label used when rendering combinators.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "LEAF"
	case KindNot:
		return "NOT"
	case KindAnd:
		return "AND"
	case KindOr:
		return "OR"
	case KindAlwaysTrue:
		return "ALWAYS"
	default:
		return "UNKNOWN"
	}
}

// Status is the evaluation outcome of a node.
type Status int

// Node statuses.
const (
	StatusNotEvaluated Status = iota
	StatusTrue
	StatusFalse
	StatusError
)

// String returns the label used in trace lines.
func (s Status) String() string {
	switch s {
	case StatusTrue:
		return "true"
	case StatusFalse:
		return "false"
	case StatusError:
		return "error"
	default:
		return "not evaluated"
	}
}

// Trace records one node of an evaluated condition tree.
type Trace struct {
	Kind        Kind
	Group       string
	Description string
	Status      Status
	Err         error
	Children    []Trace
}

// Evaluated reports whether the node's predicate (or any predicate below it) ran.
func (t Trace) Evaluated() bool { return t.Status != StatusNotEvaluated }

// Line renders the node itself without its children, e.g.
//
//	Headers -> containsKey("user-agent") -> false
func (t Trace) Line() string {
	var b strings.Builder
	switch t.Kind {
	case KindLeaf, KindNot:
		b.WriteString(t.Group)
		b.WriteString(" -> ")
		b.WriteString(t.Description)
	case KindAlwaysTrue:
		b.WriteString("Always -> true()")
	default:
		b.WriteString(t.Kind.String())
	}
	b.WriteString(" -> ")
	if t.Status == StatusError && t.Err != nil {
		b.WriteString("error: ")
		b.WriteString(t.Err.Error())
	} else {
		b.WriteString(t.Status.String())
	}
	return b.String()
}

// String renders the whole tree, one node per line, children indented by
// two spaces.
func (t Trace) String() string {
	var b strings.Builder
	t.write(&b, "")
	return strings.TrimSuffix(b.String(), "\n")
}

// WriteIndented renders the tree with every line prefixed by indent.
func (t Trace) WriteIndented(b *strings.Builder, indent string) {
	t.write(b, indent)
}

func (t Trace) write(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString(t.Line())
	b.WriteByte('\n')
	for _, c := range t.Children {
		c.write(b, indent+"  ")
	}
}

// Leaves returns the leaf and negated-leaf entries in tree order.
func (t Trace) Leaves() []Trace {
	if t.Kind == KindLeaf || t.Kind == KindNot {
		return []Trace{t}
	}
	var out []Trace
	for _, c := range t.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}
