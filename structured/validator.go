package structured

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/goccy/go-json"

	"github.com/BaSui01/llmschema/schema"
)

// Response is a validated response. Its key set always equals the schema's
// field names; absent optional fields map to nil.
type Response map[string]any

// Validator checks candidate responses against a schema definition.
type Validator struct {
	typeChecking bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTypeChecking also rejects non-nil values whose JSON kind disagrees
// with the field's declared type. Fields typed unknown accept anything.
func WithTypeChecking(enabled bool) ValidatorOption {
	return func(v *Validator) { v.typeChecking = enabled }
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Validate normalizes src and validates candidate against it.
func Validate(candidate map[string]any, src any) (Response, error) {
	return defaultValidator.Validate(candidate, src)
}

// Validate normalizes src and validates candidate against it.
func (v *Validator) Validate(candidate map[string]any, src any) (Response, error) {
	def, err := schema.Normalize(src)
	if err != nil {
		return nil, err
	}
	return v.ValidateDefinition(candidate, def)
}

// ValidateDefinition validates candidate against an already normalized
// definition. All violations are collected before failing. Keys the schema
// does not declare are dropped from the result.
func (v *Validator) ValidateDefinition(candidate map[string]any, def *schema.Definition) (Response, error) {
	result := make(Response, len(def.Fields))
	var violations []string

	for _, f := range def.Fields {
		value := candidate[f.Name]
		result[f.Name] = value

		if isMissing(value) {
			if f.Required {
				violations = append(violations, fmt.Sprintf("field %q is required but missing", f.Name))
			}
			continue
		}
		if v.typeChecking && !kindMatches(f.Type, value) {
			violations = append(violations, fmt.Sprintf("field %q expected %s, got %s", f.Name, f.Type, jsonKind(value)))
		}
	}

	if len(violations) > 0 {
		return nil, &SchemaValidationError{
			Message:  fmt.Sprintf("response failed schema validation with %d error(s)", len(violations)),
			Errors:   violations,
			Response: candidate,
		}
	}
	return result, nil
}

// isMissing treats nil and whitespace-only strings as absent.
func isMissing(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func kindMatches(t schema.Type, value any) bool {
	kind := jsonKind(value)
	switch t {
	case schema.TypeUnknown:
		return true
	case schema.TypeNumber:
		return kind == "number" || kind == "integer"
	default:
		return string(t) == kind
	}
}

// jsonKind names the JSON kind of a decoded value. Whole numbers report
// "integer".
func jsonKind(value any) string {
	switch x := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return "integer"
		}
		return "number"
	case float32:
		return jsonKind(float64(x))
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64:
		return "number"
	default:
		return "unknown"
	}
}
