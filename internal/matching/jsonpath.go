package matching

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// JSON type names reported by JSONTypeOf.
const (
	JSONTypeString  = "string"
	JSONTypeNumber  = "number"
	JSONTypeBoolean = "boolean"
	JSONTypeObject  = "object"
	JSONTypeArray   = "array"
	JSONTypeNull    = "null"
)

// CompileJSONPath parses a JSONPath expression at rule build time.
// The error echoes the offending expression.
func CompileJSONPath(path string) (jp.Expr, error) {
	if path == "" {
		return nil, fmt.Errorf("JSONPath expression is empty")
	}
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return expr, nil
}

// ValidateJSONType checks that name is one of the JSON type names.
func ValidateJSONType(name string) error {
	switch name {
	case JSONTypeString, JSONTypeNumber, JSONTypeBoolean, JSONTypeObject, JSONTypeArray, JSONTypeNull:
		return nil
	default:
		return fmt.Errorf("unknown JSON type %q", name)
	}
}

// LookupJSONPath returns every value the expression selects from a decoded
// JSON document. It never panics on a missing path; it returns no results.
func LookupJSONPath(expr jp.Expr, data any) (results []any) {
	defer func() {
		if recover() != nil {
			results = nil
		}
	}()
	return expr.Get(data)
}

// JSONPathPresent reports whether the expression selects at least one value.
func JSONPathPresent(expr jp.Expr, data any) bool {
	return len(LookupJSONPath(expr, data)) > 0
}

// JSONPathEquals reports whether any selected value equals expected.
// For wildcard paths that return multiple results, any match counts.
func JSONPathEquals(expr jp.Expr, data any, expected any) bool {
	for _, result := range LookupJSONPath(expr, data) {
		if ValuesEqual(result, expected) {
			return true
		}
	}
	return false
}

// JSONPathIsType reports whether any selected value has the given JSON type.
func JSONPathIsType(expr jp.Expr, data any, typeName string) bool {
	for _, result := range LookupJSONPath(expr, data) {
		if JSONTypeOf(result) == typeName {
			return true
		}
	}
	return false
}

// JSONTypeOf returns the JSON type name of a decoded value.
func JSONTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return JSONTypeNull
	case string:
		return JSONTypeString
	case bool:
		return JSONTypeBoolean
	case map[string]any:
		return JSONTypeObject
	case []any:
		return JSONTypeArray
	}
	if _, ok := toFloat64(v); ok {
		return JSONTypeNumber
	}
	return ""
}

// ValuesEqual compares two values for equality, handling type coercion.
// Supports comparing:
//   - strings
//   - numbers (float64, int, etc.)
//   - booleans
//   - null
func ValuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	return reflect.DeepEqual(actual, expected)
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
