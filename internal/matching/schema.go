package matching

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles an inline JSON Schema (Draft 2020-12) at rule build time.
// The schema may be a decoded document (map, bool) or raw JSON bytes/string.
func CompileSchema(schema any) (*jsonschema.Schema, error) {
	var schemaBytes []byte
	switch s := schema.(type) {
	case nil:
		return nil, fmt.Errorf("JSON schema is empty")
	case []byte:
		schemaBytes = s
	case string:
		schemaBytes = []byte(s)
	default:
		// Round-trip through JSON to ensure consistent types
		b, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		schemaBytes = b
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}
	return compiled, nil
}

// MatchSchema reports whether a decoded JSON document satisfies the schema.
func MatchSchema(schema *jsonschema.Schema, data any) bool {
	return schema != nil && schema.Validate(data) == nil
}
