package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/request"
)

// Leaf groups, as printed in traces.
const (
	GroupMethod   = "Method"
	GroupPath     = "Path"
	GroupHeaders  = "Headers"
	GroupQuery    = "Query"
	GroupBody     = "Body"
	GroupJSONPath = "JsonPath"
	GroupXPath    = "XPath"
	GroupExpr     = "Expr"
)

func leaf(group, description string, p Predicate) Leaf {
	return Leaf{group: group, description: description, predicate: p}
}

func quote(s string) string { return strconv.Quote(s) }

func quoteAll(values []string) string {
	q := make([]string, len(values))
	for i, v := range values {
		q[i] = quote(v)
	}
	return strings.Join(q, ", ")
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidExpression, err)
}

// MethodIs matches the request method, case-insensitively.
func MethodIs(method string) Leaf {
	return leaf(GroupMethod, "is("+quote(method)+")", func(v *request.View) (bool, error) {
		return matching.MatchMethod(method, v.Method()), nil
	})
}

// MethodIn matches any of the given methods.
func MethodIn(methods ...string) (Leaf, error) {
	if len(methods) == 0 {
		return Leaf{}, fmt.Errorf("%w: in() needs at least one method", ErrInvalidLeaf)
	}
	methods = append([]string(nil), methods...)
	return leaf(GroupMethod, "in("+quoteAll(methods)+")", func(v *request.View) (bool, error) {
		for _, m := range methods {
			if matching.MatchMethod(m, v.Method()) {
				return true, nil
			}
		}
		return false, nil
	}), nil
}

// PathEquals matches the exact request path.
func PathEquals(path string) Leaf {
	return leaf(GroupPath, "equals("+quote(path)+")", func(v *request.View) (bool, error) {
		return v.Path() == path, nil
	})
}

// PathMatches matches a path pattern with {named} parameters and * wildcards.
func PathMatches(pattern string) Leaf {
	return leaf(GroupPath, "matches("+quote(pattern)+")", func(v *request.View) (bool, error) {
		return matching.MatchPath(pattern, v.Path()), nil
	})
}

// PathGlob matches a doublestar glob such as "/api/**/*.json".
func PathGlob(pattern string) (Leaf, error) {
	if err := matching.ValidateGlob(pattern); err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupPath, "glob("+quote(pattern)+")", func(v *request.View) (bool, error) {
		return matching.MatchGlob(pattern, v.Path()), nil
	}), nil
}

// PathRegex matches the path against an RE2 pattern.
func PathRegex(pattern string) (Leaf, error) {
	re, err := matching.CompileRegex(pattern)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupPath, "regex("+quote(pattern)+")", func(v *request.View) (bool, error) {
		return re.MatchString(v.Path()), nil
	}), nil
}

// HeaderContainsKey matches when the header is present.
func HeaderContainsKey(name string) Leaf {
	return leaf(GroupHeaders, "containsKey("+quote(name)+")", func(v *request.View) (bool, error) {
		return matching.HasHeader(name, v.Header()), nil
	})
}

// HeaderEquals matches when any value of the header equals value.
func HeaderEquals(name, value string) Leaf {
	return leaf(GroupHeaders, "equals("+quote(name)+", "+quote(value)+")", func(v *request.View) (bool, error) {
		return matching.MatchHeader(name, value, v.Header()), nil
	})
}

// HeaderMatches matches any value of the header against a * wildcard pattern.
func HeaderMatches(name, pattern string) Leaf {
	return leaf(GroupHeaders, "matches("+quote(name)+", "+quote(pattern)+")", func(v *request.View) (bool, error) {
		return matching.MatchHeaderPattern(name, pattern, v.Header()), nil
	})
}

// QueryContainsKey matches when the query parameter is present.
func QueryContainsKey(name string) Leaf {
	return leaf(GroupQuery, "containsKey("+quote(name)+")", func(v *request.View) (bool, error) {
		return matching.HasQueryParam(name, v.Query()), nil
	})
}

// QueryEquals matches when any value of the query parameter equals value.
func QueryEquals(name, value string) Leaf {
	return leaf(GroupQuery, "equals("+quote(name)+", "+quote(value)+")", func(v *request.View) (bool, error) {
		return matching.MatchQueryParam(name, value, v.Query()), nil
	})
}

// BodyEquals matches the exact body.
func BodyEquals(expected string) Leaf {
	return leaf(GroupBody, "equals("+quote(expected)+")", func(v *request.View) (bool, error) {
		body, err := v.Body()
		if err != nil {
			return false, err
		}
		return matching.MatchBodyEquals(body, expected), nil
	})
}

// BodyContains matches when the body contains substr.
func BodyContains(substr string) Leaf {
	return leaf(GroupBody, "contains("+quote(substr)+")", func(v *request.View) (bool, error) {
		body, err := v.Body()
		if err != nil {
			return false, err
		}
		return matching.MatchBodyContains(body, substr), nil
	})
}

// BodyRegex matches the body against an RE2 pattern.
func BodyRegex(pattern string) (Leaf, error) {
	re, err := matching.CompileRegex(pattern)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupBody, "regex("+quote(pattern)+")", func(v *request.View) (bool, error) {
		body, err := v.Body()
		if err != nil {
			return false, err
		}
		return matching.MatchBodyPattern(re, body), nil
	}), nil
}

// BodyMatchesSchema matches a JSON body that validates against a JSON Schema.
// A body that is not JSON does not match.
func BodyMatchesSchema(schema any) (Leaf, error) {
	compiled, err := matching.CompileSchema(schema)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupBody, "matchesSchema()", func(v *request.View) (bool, error) {
		data, err := v.JSON()
		if err != nil {
			return false, nil
		}
		return matching.MatchSchema(compiled, data), nil
	}), nil
}

// BodyXPathEquals matches an XML body whose selected element text (or
// attribute, for a trailing /@attr step) equals expected. A body that is not
// XML does not match.
func BodyXPathEquals(xpath, expected string) (Leaf, error) {
	path, attr, err := matching.CompileXPath(xpath)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupXPath, "equals("+quote(xpath)+", "+quote(expected)+")", func(v *request.View) (bool, error) {
		doc, err := v.XML()
		if err != nil {
			return false, nil
		}
		actual, found := matching.ExtractXPath(doc, path, attr)
		return found && actual == expected, nil
	}), nil
}

// JSONPathPresent matches a JSON body in which path selects a value.
// A body that is not JSON does not match.
func JSONPathPresent(path string) (Leaf, error) {
	expr, err := matching.CompileJSONPath(path)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupJSONPath, "isPresent("+quote(path)+")", func(v *request.View) (bool, error) {
		data, err := v.JSON()
		if err != nil {
			return false, nil
		}
		return matching.JSONPathPresent(expr, data), nil
	}), nil
}

// JSONPathEquals matches a JSON body in which path selects a value equal to
// expected. Numbers compare by value regardless of Go type.
func JSONPathEquals(path string, expected any) (Leaf, error) {
	expr, err := matching.CompileJSONPath(path)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupJSONPath, fmt.Sprintf("equals(%s, %#v)", quote(path), expected), func(v *request.View) (bool, error) {
		data, err := v.JSON()
		if err != nil {
			return false, nil
		}
		return matching.JSONPathEquals(expr, data, expected), nil
	}), nil
}

// JSONPathIsType matches a JSON body in which path selects a value of the
// given JSON type: string, number, boolean, object, array or null.
func JSONPathIsType(path, typeName string) (Leaf, error) {
	expr, err := matching.CompileJSONPath(path)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	if err := matching.ValidateJSONType(typeName); err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupJSONPath, "isType("+quote(path)+", "+quote(typeName)+")", func(v *request.View) (bool, error) {
		data, err := v.JSON()
		if err != nil {
			return false, nil
		}
		return matching.JSONPathIsType(expr, data, typeName), nil
	}), nil
}

// Expr matches when a boolean expr-lang expression over the request facts
// is true. The facts are method, path, query, headers, body and json (nil
// when the body is not JSON).
func Expr(expression string) (Leaf, error) {
	program, err := matching.CompileExpr(expression)
	if err != nil {
		return Leaf{}, invalid(err)
	}
	return leaf(GroupExpr, "expr("+quote(expression)+")", func(v *request.View) (bool, error) {
		body, err := v.Body()
		if err != nil {
			return false, err
		}
		data, _ := v.JSON()
		return matching.RunExpr(program, matching.ExprEnv{
			Method:  v.Method(),
			Path:    v.Path(),
			Query:   v.Query(),
			Headers: v.Header(),
			Body:    string(body),
			JSON:    data,
		})
	}), nil
}
