package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/llmschema/types"
)

// Property describes one entry of a Document's properties map.
// AnyOf is read so documents produced by JSON Schema generators that encode
// optional fields as {"anyOf": [{"type": "string"}, {"type": "null"}]} still
// resolve to a concrete type tag.
type Property struct {
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	AnyOf       []Property `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
}

// resolvedType returns the declared type, falling back to the first non-null
// anyOf branch.
func (p Property) resolvedType() Type {
	if p.Type != "" {
		return ParseType(p.Type)
	}
	for _, alt := range p.AnyOf {
		if alt.Type != "" && alt.Type != "null" {
			return ParseType(alt.Type)
		}
	}
	return TypeUnknown
}

// NamedProperty is a property together with its key.
type NamedProperty struct {
	Name string
	Property
}

// Properties is an ordered properties map. It encodes as a JSON/YAML object
// and keeps the key order found in the source text.
type Properties []NamedProperty

// MarshalJSON writes the properties as an object in slice order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, np := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(np.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(np.Property)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties must be an object")
	}

	var out Properties
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected properties token %v", tok)
		}
		var prop Property
		if err := dec.Decode(&prop); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		out = append(out, NamedProperty{Name: key, Property: prop})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// MarshalYAML writes the properties as a mapping node in slice order.
func (p Properties) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, np := range p {
		var val yaml.Node
		if err := val.Encode(np.Property); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: np.Name},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node keeping key order.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("properties must be a mapping (line %d)", value.Line)
	}
	out := make(Properties, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var prop Property
		if err := value.Content[i+1].Decode(&prop); err != nil {
			return fmt.Errorf("property %q: %w", value.Content[i].Value, err)
		}
		out = append(out, NamedProperty{Name: value.Content[i].Value, Property: prop})
	}
	*p = out
	return nil
}

// Document is the plain structural description of a schema:
// a properties map plus the set of required names.
type Document struct {
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	Type       string     `json:"type,omitempty" yaml:"type,omitempty"`
	Properties Properties `json:"properties" yaml:"properties"`
	Required   []string   `json:"required,omitempty" yaml:"required,omitempty"`
}

// ParseDocument decodes a JSON document.
func ParseDocument(data []byte) (*Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema document is not a JSON object").WithCause(err)
	}
	if _, ok := probe["properties"]; !ok {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema document has no properties")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "malformed schema document").WithCause(err)
	}
	return &doc, nil
}

// ParseYAMLDocument decodes a YAML document.
func ParseYAMLDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "malformed YAML schema document").WithCause(err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "YAML schema document is not a mapping")
	}
	hasProps := false
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "properties" {
			hasProps = true
		}
	}
	if !hasProps {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema document has no properties")
	}
	var doc Document
	if err := top.Decode(&doc); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "malformed YAML schema document").WithCause(err)
	}
	return &doc, nil
}

// MarshalJSONIndent encodes the document with two-space indentation.
func (d *Document) MarshalJSONIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Definition normalizes the document.
func (d *Document) Definition() (*Definition, error) {
	def := &Definition{Title: d.Title}
	for _, np := range d.Properties {
		def.Fields = append(def.Fields, Field{
			Name:        np.Name,
			Description: np.Description,
			Type:        np.resolvedType(),
		})
	}
	for _, name := range d.Required {
		idx := slices.IndexFunc(def.Fields, func(f Field) bool { return f.Name == name })
		if idx < 0 {
			return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "required field %q is not a declared property", name)
		}
		def.Fields[idx].Required = true
	}
	if err := def.Check(); err != nil {
		return nil, err
	}
	return def, nil
}

// documentFromMap reads the {"properties": {...}, "required": [...]} shape
// out of a generic map. Properties are sorted by name since map iteration
// order is undefined.
func documentFromMap(m map[string]any) (*Document, error) {
	rawProps, ok := m["properties"]
	if !ok {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "schema map has no properties")
	}
	props, ok := rawProps.(map[string]any)
	if !ok {
		return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "properties must be a map, got %T", rawProps)
	}

	doc := &Document{}
	if title, ok := m["title"].(string); ok {
		doc.Title = title
	}
	if typ, ok := m["type"].(string); ok {
		doc.Type = typ
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop, err := propertyFromAny(props[name])
		if err != nil {
			return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "property %q: %v", name, err)
		}
		doc.Properties = append(doc.Properties, NamedProperty{Name: name, Property: prop})
	}

	switch req := m["required"].(type) {
	case nil:
	case []string:
		doc.Required = slices.Clone(req)
	case []any:
		for _, r := range req {
			s, ok := r.(string)
			if !ok {
				return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "required entries must be strings, got %T", r)
			}
			doc.Required = append(doc.Required, s)
		}
	default:
		return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "required must be a list, got %T", req)
	}
	return doc, nil
}

func propertyFromAny(v any) (Property, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Property{}, fmt.Errorf("must be a map, got %T", v)
	}
	var p Property
	if s, ok := m["title"].(string); ok {
		p.Title = s
	}
	if s, ok := m["description"].(string); ok {
		p.Description = s
	}
	if s, ok := m["type"].(string); ok {
		p.Type = s
	}
	if alts, ok := m["anyOf"].([]any); ok {
		for _, a := range alts {
			alt, err := propertyFromAny(a)
			if err != nil {
				return Property{}, err
			}
			p.AnyOf = append(p.AnyOf, alt)
		}
	}
	return p, nil
}
