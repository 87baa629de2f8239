package schema

import (
	"slices"

	"github.com/BaSui01/llmschema/types"
)

// Type is the declared type tag of a field.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeUnknown Type = "unknown"
)

// ParseType maps a JSON Schema type keyword to a Type. Anything it does not
// recognize, including the empty string, is TypeUnknown.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return Type(s)
	default:
		return TypeUnknown
	}
}

// Field is a single field specification.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Type        Type   `json:"type" yaml:"type"`
}

// Definition is the normalized form every schema source is reduced to.
// Fields keep their declaration order.
type Definition struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Names returns the field names in order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredNames returns the names of required fields in order.
func (d *Definition) RequiredNames() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Lookup returns the field with the given name.
func (d *Definition) Lookup(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	return &Definition{Title: d.Title, Fields: slices.Clone(d.Fields)}
}

// Check enforces the definition invariants: non-empty unique field names and
// a known type tag on every field.
func (d *Definition) Check() error {
	seen := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return types.Errorf(types.ErrCodeInvalidSchemaFormat, "field %d has an empty name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return types.Errorf(types.ErrCodeInvalidSchemaFormat, "duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if ParseType(string(f.Type)) != f.Type && f.Type != TypeUnknown {
			return types.Errorf(types.ErrCodeInvalidSchemaFormat, "field %q has unsupported type %q", f.Name, f.Type)
		}
	}
	return nil
}

// Document converts the definition to its plain, transmissible form.
// Document().Definition() yields an equal Definition.
func (d *Definition) Document() *Document {
	doc := &Document{Title: d.Title, Type: string(TypeObject)}
	for _, f := range d.Fields {
		p := Property{Description: f.Description}
		if f.Type != TypeUnknown {
			p.Type = string(f.Type)
		}
		doc.Properties = append(doc.Properties, NamedProperty{Name: f.Name, Property: p})
		if f.Required {
			doc.Required = append(doc.Required, f.Name)
		}
	}
	return doc
}
