// Package matching provides the primitive request matchers that back the
// leaf conditions of a rule.
//
// Each matcher works on plain values (a path, a header value, a decoded JSON
// document) so it can be tested without an HTTP request. Matchers that take
// a user-supplied expression come in two halves: a Compile/Validate function
// that runs when the rule is built and rejects bad input with the expression
// echoed in the error, and a cheap match function that runs per request.
//
// Supported criteria:
//
//   - Path: exact paths, {named} parameters, * wildcards, doublestar globs, regex
//   - Method: case-insensitive verification
//   - Header and query: presence, exact values, and * wildcard patterns
//   - Body: exact, contains, regex, JSON Schema, and XPath
//   - JSONPath: presence, value equality with numeric coercion, and JSON type
//   - Expressions: expr-lang boolean expressions over request facts
package matching
