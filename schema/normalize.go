package schema

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/BaSui01/llmschema/types"
)

// Normalize reduces any accepted schema source to a Definition.
//
// Accepted sources:
//   - *Definition, Definition
//   - *Document, Document
//   - map[string]any with a "properties" map and optional "required" list
//   - JSON or YAML text as []byte, json.RawMessage or string
//   - reflect.Type of a struct, a struct value, or a pointer to a struct
//
// Anything else fails with an InvalidSchemaFormat error. The returned
// Definition is never shared with the caller's input.
func Normalize(src any) (*Definition, error) {
	switch s := src.(type) {
	case nil:
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema source is nil")
	case *Definition:
		if s == nil {
			return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema definition is nil")
		}
		def := s.Clone()
		for i := range def.Fields {
			if def.Fields[i].Type == "" {
				def.Fields[i].Type = TypeUnknown
			}
		}
		if err := def.Check(); err != nil {
			return nil, err
		}
		return def, nil
	case Definition:
		return Normalize(&s)
	case *Document:
		if s == nil {
			return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema document is nil")
		}
		return s.Definition()
	case Document:
		return s.Definition()
	case map[string]any:
		doc, err := documentFromMap(s)
		if err != nil {
			return nil, err
		}
		return doc.Definition()
	case json.RawMessage:
		return normalizeText([]byte(s))
	case []byte:
		return normalizeText(s)
	case string:
		return normalizeText([]byte(s))
	case reflect.Type:
		return FromType(s)
	}

	t := reflect.TypeOf(src)
	base := t
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct {
		return FromType(t)
	}
	return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "unsupported schema source %T", src)
}

// normalizeText parses a JSON document, falling back to YAML when the text
// does not start with '{'.
func normalizeText(data []byte) (*Definition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema text is empty")
	}
	var (
		doc *Document
		err error
	)
	if trimmed[0] == '{' {
		doc, err = ParseDocument(trimmed)
	} else {
		doc, err = ParseYAMLDocument(trimmed)
	}
	if err != nil {
		return nil, err
	}
	return doc.Definition()
}
