package matching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, body string) any {
	t.Helper()
	var data any
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	return data
}

func TestJSONPathEquals(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected any
		body     string
		want     bool
	}{
		{"simple string field match", "$.status", "active", `{"status": "active"}`, true},
		{"simple string field mismatch", "$.status", "active", `{"status": "inactive"}`, false},
		{"number field match", "$.count", float64(42), `{"count": 42}`, true},
		{"int coerces to float", "$.count", 42, `{"count": 42}`, true},
		{"number field mismatch", "$.count", 42, `{"count": 43}`, false},
		{"boolean field match", "$.enabled", false, `{"enabled": false}`, true},
		{"null field match", "$.deleted", nil, `{"deleted": null}`, true},
		{"nested path", "$.user.address.city", "Oslo", `{"user": {"address": {"city": "Oslo"}}}`, true},
		{"array index", "$.items[1].id", "b", `{"items": [{"id": "a"}, {"id": "b"}]}`, true},
		{"wildcard any match", "$.items[*].id", "b", `{"items": [{"id": "a"}, {"id": "b"}]}`, true},
		{"wildcard no match", "$.items[*].id", "c", `{"items": [{"id": "a"}, {"id": "b"}]}`, false},
		{"missing path", "$.nope", "x", `{"status": "active"}`, false},
		{"string vs number", "$.count", "42", `{"count": 42}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := CompileJSONPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, JSONPathEquals(expr, decodeJSON(t, tt.body), tt.expected))
		})
	}
}

func TestJSONPathPresent(t *testing.T) {
	data := decodeJSON(t, `{"user": {"name": "ada", "tags": []}, "deleted": null}`)

	tests := []struct {
		path string
		want bool
	}{
		{"$.user.name", true},
		{"$.user.tags", true},
		{"$.deleted", true},
		{"$.user.email", false},
		{"$.user.name.first", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			expr, err := CompileJSONPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, JSONPathPresent(expr, data))
		})
	}
}

func TestJSONPathIsType(t *testing.T) {
	data := decodeJSON(t, `{"s": "x", "n": 1.5, "b": true, "o": {}, "a": [1], "z": null}`)

	tests := []struct {
		path     string
		typeName string
		want     bool
	}{
		{"$.s", JSONTypeString, true},
		{"$.n", JSONTypeNumber, true},
		{"$.b", JSONTypeBoolean, true},
		{"$.o", JSONTypeObject, true},
		{"$.a", JSONTypeArray, true},
		{"$.z", JSONTypeNull, true},
		{"$.s", JSONTypeNumber, false},
		{"$.missing", JSONTypeNull, false},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.typeName, func(t *testing.T) {
			expr, err := CompileJSONPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, JSONPathIsType(expr, data, tt.typeName))
		})
	}
}

func TestCompileJSONPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid simple path", "$.name", false},
		{"valid nested path", "$.user.address.city", false},
		{"valid wildcard", "$.items[*].id", false},
		{"empty path", "", true},
		{"unclosed bracket", "$.items[", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileJSONPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				if tt.path != "" {
					assert.Contains(t, err.Error(), tt.path)
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateJSONType(t *testing.T) {
	assert.NoError(t, ValidateJSONType(JSONTypeArray))
	assert.Error(t, ValidateJSONType("integer"))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(nil, nil))
	assert.False(t, ValuesEqual(nil, "x"))
	assert.True(t, ValuesEqual(float64(3), int64(3)))
	assert.True(t, ValuesEqual(map[string]any{"a": "b"}, map[string]any{"a": "b"}))
	assert.False(t, ValuesEqual(true, "true"))
}
