package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/stubd/pkg/condition"
)

// MatchNode is one node of a rule's when tree.
type MatchNode struct {
	All       []MatchNode    `yaml:"all,omitempty"`
	Any       []MatchNode    `yaml:"any,omitempty"`
	Not       *MatchNode     `yaml:"not,omitempty"`
	Always    bool           `yaml:"always,omitempty"`
	Method    string         `yaml:"method,omitempty"`
	Methods   []string       `yaml:"methods,omitempty"`
	Path      string         `yaml:"path,omitempty"`
	PathGlob  string         `yaml:"pathGlob,omitempty"`
	PathRegex string         `yaml:"pathRegex,omitempty"`
	Header    *HeaderMatch   `yaml:"header,omitempty"`
	Query     *QueryMatch    `yaml:"query,omitempty"`
	Body      *BodyMatch     `yaml:"body,omitempty"`
	JSONPath  *JSONPathMatch `yaml:"jsonPath,omitempty"`
	XPath     *XPathMatch    `yaml:"xpath,omitempty"`
	Expr      string         `yaml:"expr,omitempty"`
}

// HeaderMatch checks a header. Without equals or matches it only checks
// that the header is present.
type HeaderMatch struct {
	Name    string  `yaml:"name"`
	Equals  *string `yaml:"equals,omitempty"`
	Matches string  `yaml:"matches,omitempty"`
}

// QueryMatch checks a query parameter. Without equals it only checks that
// the parameter is present.
type QueryMatch struct {
	Name   string  `yaml:"name"`
	Equals *string `yaml:"equals,omitempty"`
}

// BodyMatch checks the raw body. Exactly one field must be set.
type BodyMatch struct {
	Equals   *string `yaml:"equals,omitempty"`
	Contains string  `yaml:"contains,omitempty"`
	Regex    string  `yaml:"regex,omitempty"`
	Schema   any     `yaml:"schema,omitempty"`
}

// JSONPathMatch checks a JSONPath expression against the JSON body. With
// neither equals nor type it checks presence.
type JSONPathMatch struct {
	Path      string `yaml:"path"`
	Equals    any    `yaml:"equals,omitempty"`
	Type      string `yaml:"type,omitempty"`
	hasEquals bool
}

// UnmarshalYAML records whether equals was given, so equals: null can be
// told apart from a missing key.
func (m *JSONPathMatch) UnmarshalYAML(node *yaml.Node) error {
	type plain JSONPathMatch
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = JSONPathMatch(p)
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "equals" {
				m.hasEquals = true
			}
		}
	}
	return nil
}

// XPathMatch compares the text or attribute at an XPath in the XML body.
type XPathMatch struct {
	Path   string `yaml:"path"`
	Equals string `yaml:"equals"`
}

var errNodeKind = errors.New("match node must set exactly one condition")

// Build converts the node into a condition tree.
func (n *MatchNode) Build() (condition.Condition, error) {
	if n.Always {
		if keys := n.keys(); len(keys) != 1 {
			return nil, fmt.Errorf("%w, got %s", errNodeKind, describeKeys(keys))
		}
		return condition.AlwaysTrue, nil
	}
	return n.build()
}

func (n *MatchNode) build() (condition.Condition, error) {
	keys := n.keys()
	if len(keys) != 1 {
		return nil, fmt.Errorf("%w, got %s", errNodeKind, describeKeys(keys))
	}

	switch keys[0] {
	case "all":
		children, err := buildChildren("all", n.All)
		if err != nil {
			return nil, err
		}
		return condition.NewAnd(children...)
	case "any":
		children, err := buildChildren("any", n.Any)
		if err != nil {
			return nil, err
		}
		return condition.NewOr(children...)
	case "not":
		child, err := n.Not.build()
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return condition.NewNot(child)
	case "always":
		return condition.AlwaysTrue, nil
	case "method":
		return condition.MethodIs(n.Method), nil
	case "methods":
		return condition.MethodIn(n.Methods...)
	case "path":
		if strings.ContainsAny(n.Path, "{*") {
			return condition.PathMatches(n.Path), nil
		}
		return condition.PathEquals(n.Path), nil
	case "pathGlob":
		return condition.PathGlob(n.PathGlob)
	case "pathRegex":
		return condition.PathRegex(n.PathRegex)
	case "header":
		return n.Header.build()
	case "query":
		return n.Query.build()
	case "body":
		return n.Body.build()
	case "jsonPath":
		return n.JSONPath.build()
	case "xpath":
		return condition.BodyXPathEquals(n.XPath.Path, n.XPath.Equals)
	case "expr":
		return condition.Expr(n.Expr)
	}
	return nil, fmt.Errorf("unsupported match key %q", keys[0])
}

func buildChildren(key string, nodes []MatchNode) ([]condition.Condition, error) {
	children := make([]condition.Condition, 0, len(nodes))
	for i := range nodes {
		c, err := nodes[i].build()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		children = append(children, c)
	}
	return children, nil
}

func (n *MatchNode) keys() []string {
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(n.All != nil, "all")
	add(n.Any != nil, "any")
	add(n.Not != nil, "not")
	add(n.Always, "always")
	add(n.Method != "", "method")
	add(n.Methods != nil, "methods")
	add(n.Path != "", "path")
	add(n.PathGlob != "", "pathGlob")
	add(n.PathRegex != "", "pathRegex")
	add(n.Header != nil, "header")
	add(n.Query != nil, "query")
	add(n.Body != nil, "body")
	add(n.JSONPath != nil, "jsonPath")
	add(n.XPath != nil, "xpath")
	add(n.Expr != "", "expr")
	return keys
}

func describeKeys(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}

func (h *HeaderMatch) build() (condition.Condition, error) {
	if h.Name == "" {
		return nil, errors.New("header: name is required")
	}
	switch {
	case h.Equals != nil && h.Matches != "":
		return nil, errors.New("header: set equals or matches, not both")
	case h.Equals != nil:
		return condition.HeaderEquals(h.Name, *h.Equals), nil
	case h.Matches != "":
		return condition.HeaderMatches(h.Name, h.Matches), nil
	}
	return condition.HeaderContainsKey(h.Name), nil
}

func (q *QueryMatch) build() (condition.Condition, error) {
	if q.Name == "" {
		return nil, errors.New("query: name is required")
	}
	if q.Equals != nil {
		return condition.QueryEquals(q.Name, *q.Equals), nil
	}
	return condition.QueryContainsKey(q.Name), nil
}

func (b *BodyMatch) build() (condition.Condition, error) {
	set := 0
	for _, ok := range []bool{b.Equals != nil, b.Contains != "", b.Regex != "", b.Schema != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("body: set exactly one of equals, contains, regex or schema")
	}
	switch {
	case b.Equals != nil:
		return condition.BodyEquals(*b.Equals), nil
	case b.Contains != "":
		return condition.BodyContains(b.Contains), nil
	case b.Regex != "":
		return condition.BodyRegex(b.Regex)
	default:
		return condition.BodyMatchesSchema(b.Schema)
	}
}

func (j *JSONPathMatch) build() (condition.Condition, error) {
	if j.Path == "" {
		return nil, errors.New("jsonPath: path is required")
	}
	switch {
	case j.hasEquals && j.Type != "":
		return nil, errors.New("jsonPath: set equals or type, not both")
	case j.hasEquals:
		return condition.JSONPathEquals(j.Path, j.Equals)
	case j.Type != "":
		return condition.JSONPathIsType(j.Path, j.Type)
	}
	return condition.JSONPathPresent(j.Path)
}
