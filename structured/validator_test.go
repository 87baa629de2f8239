package structured

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/llmschema/schema"
	"github.com/BaSui01/llmschema/types"
)

func textConfidenceSchema() *schema.Definition {
	return &schema.Definition{Fields: []schema.Field{
		{Name: "text", Required: true, Type: schema.TypeString},
		{Name: "confidence", Required: true, Type: schema.TypeNumber},
	}}
}

func TestValidate_DropsExtraFields(t *testing.T) {
	def := &schema.Definition{Fields: []schema.Field{
		{Name: "a", Required: true, Type: schema.TypeInteger},
		{Name: "b", Type: schema.TypeInteger},
	}}
	got, err := Validate(map[string]any{"a": 1, "b": 2, "c": 3}, def)
	require.NoError(t, err)
	assert.Equal(t, Response{"a": 1, "b": 2}, got)
}

func TestValidate_DefinitionLiteralWithoutType(t *testing.T) {
	def := &schema.Definition{Fields: []schema.Field{{Name: "text", Required: true}}}

	got, err := NewValidator(WithTypeChecking(true)).Validate(map[string]any{"text": "hi"}, def)
	require.NoError(t, err)
	assert.Equal(t, Response{"text": "hi"}, got)

	prompt, err := NewPromptBuilder().Build(def, "p")
	require.NoError(t, err)
	assert.Contains(t, prompt, "text")
}

func TestValidate_OptionalAbsentIsNil(t *testing.T) {
	def := &schema.Definition{Fields: []schema.Field{
		{Name: "a", Required: true, Type: schema.TypeString},
		{Name: "b", Type: schema.TypeString},
	}}
	got, err := Validate(map[string]any{"a": "x"}, def)
	require.NoError(t, err)
	require.Contains(t, got, "b")
	assert.Nil(t, got["b"])
	assert.Len(t, got, 2)
}

func TestValidate_RequiredMissing(t *testing.T) {
	candidate := map[string]any{"text": "hi"}
	_, err := Validate(candidate, textConfidenceSchema())
	require.Error(t, err)

	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{`field "confidence" is required but missing`}, verr.Errors)
	assert.Equal(t, candidate, verr.Response)
	assert.True(t, errors.Is(err, ErrSchemaValidation))
}

func TestValidate_WhitespaceIsMissing(t *testing.T) {
	_, err := Validate(map[string]any{"text": "   ", "confidence": 0.9}, textConfidenceSchema())
	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{`field "text" is required but missing`}, verr.Errors)
}

func TestValidate_CollectsAllViolationsInOrder(t *testing.T) {
	_, err := Validate(map[string]any{"text": nil}, textConfidenceSchema())
	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		`field "text" is required but missing`,
		`field "confidence" is required but missing`,
	}, verr.Errors)
}

func TestValidate_OptionalWhitespaceKept(t *testing.T) {
	def := &schema.Definition{Fields: []schema.Field{{Name: "note", Type: schema.TypeString}}}
	got, err := Validate(map[string]any{"note": "  "}, def)
	require.NoError(t, err)
	assert.Equal(t, Response{"note": "  "}, got)
}

func TestValidate_InvalidSchema(t *testing.T) {
	_, err := Validate(map[string]any{}, 3.14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidSchemaFormat))
}

func TestValidator_TypeChecking(t *testing.T) {
	def := &schema.Definition{Fields: []schema.Field{
		{Name: "s", Type: schema.TypeString},
		{Name: "n", Type: schema.TypeNumber},
		{Name: "i", Type: schema.TypeInteger},
		{Name: "b", Type: schema.TypeBoolean},
		{Name: "o", Type: schema.TypeObject},
		{Name: "a", Type: schema.TypeArray},
		{Name: "u", Type: schema.TypeUnknown},
	}}

	t.Run("matching kinds", func(t *testing.T) {
		v := NewValidator(WithTypeChecking(true))
		_, err := v.ValidateDefinition(map[string]any{
			"s": "x", "n": 1.5, "i": float64(3), "b": true,
			"o": map[string]any{}, "a": []any{}, "u": "anything",
		}, def)
		assert.NoError(t, err)
	})

	t.Run("integers are numbers", func(t *testing.T) {
		v := NewValidator(WithTypeChecking(true))
		_, err := v.ValidateDefinition(map[string]any{"n": float64(2)}, def)
		assert.NoError(t, err)
	})

	t.Run("mismatches reported", func(t *testing.T) {
		v := NewValidator(WithTypeChecking(true))
		_, err := v.ValidateDefinition(map[string]any{"s": 1.0, "i": 1.5, "b": "yes"}, def)
		var verr *SchemaValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{
			`field "s" expected string, got integer`,
			`field "i" expected integer, got number`,
			`field "b" expected boolean, got string`,
		}, verr.Errors)
	})

	t.Run("off by default", func(t *testing.T) {
		_, err := NewValidator().ValidateDefinition(map[string]any{"s": 1.0}, def)
		assert.NoError(t, err)
	})
}

func TestSchemaValidationError_Error(t *testing.T) {
	err := &SchemaValidationError{
		Message:  "response failed schema validation",
		Errors:   []string{"first", "second"},
		Response: map[string]any{"a": 1},
	}
	assert.Equal(t, "response failed schema validation\nValidation issues:\n- first\n- second\nRaw response: {\"a\":1}", err.Error())
}

// Validation either fails or returns exactly the schema's keys.
func TestProperty_ValidatorKeyCompleteness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fieldNames := []string{"a", "b", "c", "d", "e"}

	properties.Property("result keys equal schema field names", prop.ForAll(
		func(required []bool, present []bool, blank []bool, extra string) bool {
			def := &schema.Definition{}
			candidate := map[string]any{}
			for i, name := range fieldNames {
				def.Fields = append(def.Fields, schema.Field{Name: name, Required: required[i], Type: schema.TypeString})
				if present[i] {
					if blank[i] {
						candidate[name] = " "
					} else {
						candidate[name] = "value"
					}
				}
			}
			candidate["extra_"+extra] = "ignored"

			got, err := Validate(candidate, def)
			if err != nil {
				var verr *SchemaValidationError
				return errors.As(err, &verr) && len(verr.Errors) > 0
			}
			if len(got) != len(fieldNames) {
				return false
			}
			for _, name := range fieldNames {
				if _, ok := got[name]; !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(len(fieldNames), gen.Bool()),
		gen.SliceOfN(len(fieldNames), gen.Bool()),
		gen.SliceOfN(len(fieldNames), gen.Bool()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
