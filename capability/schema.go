package capability

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParamType enumerates the JSON-compatible parameter types a schema may declare.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamSpec declares a single named parameter: its type, whether it must be
// supplied and an optional default applied when it is absent.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
}

// Schema is the ordered parameter declaration of a capability. Order is
// stable for documentation purposes; validation itself is order-independent.
type Schema []ParamSpec

// ValidationError reports a single offending parameter with details.
type ValidationError struct {
	Field   string `json:"field"`   // Parameter that failed validation
	Value   any    `json:"value"`   // Value that was provided, if any
	Message string `json:"message"` // Human-readable error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Field, e.Message)
}

// Validate checks args against the schema and returns a defaulted copy.
//
// The schema is strict: unknown parameters are rejected so typos fail loudly
// instead of being silently ignored. Every required parameter must be present,
// non-null and type-compatible; a JSON null counts as absent, so it fails a
// required parameter and falls back to the default for an optional one.
// Declared defaults are applied for absent optional parameters. The input map
// is never mutated.
func (s Schema) Validate(args map[string]any) (map[string]any, error) {
	// Reject unknown parameters first, in deterministic order.
	unknown := make([]string, 0)
	for name := range args {
		if s.lookup(name) == nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{
			Field:   unknown[0],
			Value:   args[unknown[0]],
			Message: "unknown parameter",
		}
	}

	out := make(map[string]any, len(s))
	for _, p := range s {
		value, ok := args[p.Name]
		if !ok || value == nil {
			if p.Required {
				message := "required parameter is missing"
				if ok {
					message = "required parameter is null"
				}
				return nil, &ValidationError{
					Field:   p.Name,
					Message: message,
				}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		if !compatible(value, p.Type) {
			return nil, &ValidationError{
				Field:   p.Name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", p.Type, value),
			}
		}
		out[p.Name] = value
	}
	return out, nil
}

func (s Schema) lookup(name string) *ParamSpec {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}

// MarshalJSON renders the schema as a name -> {type, required, default}
// object, the shape exposed by the discovery endpoint.
func (s Schema) MarshalJSON() ([]byte, error) {
	type paramJSON struct {
		Type        ParamType `json:"type"`
		Description string    `json:"description,omitempty"`
		Required    bool      `json:"required"`
		Default     any       `json:"default,omitempty"`
	}
	m := make(map[string]paramJSON, len(s))
	for _, p := range s {
		m[p.Name] = paramJSON{
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Default:     p.Default,
		}
	}
	return json.Marshal(m)
}

// compatible checks a non-nil runtime value against a declared parameter
// type. Validate handles nil before this is consulted.
func compatible(value any, t ParamType) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeInteger:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON decoding produces float64 for all numbers
			return v == float64(int64(v))
		}
		return false
	case TypeNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}

// intArg extracts an integer argument, tolerating the float64 representation
// produced by JSON decoding. Assumes the schema already validated the type.
func intArg(args map[string]any, name string) (int, bool) {
	switch v := args[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
