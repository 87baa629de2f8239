package schema

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/BaSui01/llmschema/types"
)

const defaultGeneratorCacheSize = 256

// Generator derives Definitions from Go struct types by reflection.
//
// Field names come from the json tag (falling back to the Go field name).
// The jsonschema tag supports two options:
//   - required: the field must be present and non-empty
//   - description=...: free text shown to the model; may contain commas
//
// Results are cached per type; callers always receive a private copy.
type Generator struct {
	cache *lru.Cache[reflect.Type, *Definition]
}

// NewGenerator creates a Generator with a bounded type cache.
func NewGenerator() *Generator {
	cache, err := lru.New[reflect.Type, *Definition](defaultGeneratorCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Generator{cache: cache}
}

var defaultGenerator = NewGenerator()

// FromType builds a Definition from a struct type or pointer to struct type.
func (g *Generator) FromType(t reflect.Type) (*Definition, error) {
	if t == nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "cannot derive a schema from a nil type")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, types.Errorf(types.ErrCodeInvalidSchemaFormat, "schema type must be a struct, got %s", t.Kind())
	}

	if def, ok := g.cache.Get(t); ok {
		return def.Clone(), nil
	}

	def := &Definition{Title: t.Name()}
	if err := collectFields(def, t, map[reflect.Type]bool{}); err != nil {
		return nil, err
	}
	if err := def.Check(); err != nil {
		return nil, err
	}
	g.cache.Add(t, def)
	return def.Clone(), nil
}

// FromValue builds a Definition from the dynamic type of v.
func (g *Generator) FromValue(v any) (*Definition, error) {
	if v == nil {
		return nil, types.NewError(types.ErrCodeInvalidSchemaFormat, "cannot derive a schema from a nil value")
	}
	return g.FromType(reflect.TypeOf(v))
}

// collectFields appends the exported fields of t to def, flattening
// anonymous struct fields without a json name the way encoding/json does.
func collectFields(def *Definition, t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, skip := jsonFieldName(sf)
		if skip {
			continue
		}

		if sf.Anonymous && !hasJSONName(sf) {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := collectFields(def, ft, seen); err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		opts := parseTagOptions(sf.Tag.Get("jsonschema"))
		_, required := opts["required"]
		if _, dup := def.Lookup(name); dup {
			return types.Errorf(types.ErrCodeInvalidSchemaFormat, "duplicate field name %q in %s", name, t)
		}
		def.Fields = append(def.Fields, Field{
			Name:        name,
			Description: opts["description"],
			Required:    required,
			Type:        typeOf(sf.Type),
		})
	}
	return nil
}

func typeOf(t reflect.Type) Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	default:
		return TypeUnknown
	}
}

// jsonFieldName returns the encoded name of a struct field and whether the
// field is excluded with json:"-".
func jsonFieldName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name, false
	}
	return name, false
}

func hasJSONName(sf reflect.StructField) bool {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	return name != ""
}

// parseTagOptions splits a jsonschema tag into options.
// Format: "opt1,opt2=value2,opt3=value3".
func parseTagOptions(tag string) map[string]string {
	options := make(map[string]string)
	for _, part := range splitTagParts(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := strings.Cut(part, "="); ok && key != "" {
			options[strings.TrimSpace(key)] = value
		} else {
			options[part] = ""
		}
	}
	return options
}

// knownTagOptions are the option keys a comma may introduce while a value is
// being read. Any other comma inside a value belongs to that value, so
// descriptions may contain commas.
var knownTagOptions = map[string]bool{
	"required":    true,
	"description": true,
}

func splitTagParts(tag string) []string {
	if tag == "" {
		return nil
	}
	var parts []string
	var current strings.Builder
	inValue := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		switch {
		case ch == '=' && !inValue:
			inValue = true
			current.WriteByte(ch)
		case ch == ',' && !inValue:
			parts = append(parts, current.String())
			current.Reset()
		case ch == ',' && inValue:
			next, _, _ := strings.Cut(tag[i+1:], ",")
			key, _, _ := strings.Cut(next, "=")
			if knownTagOptions[strings.TrimSpace(key)] {
				parts = append(parts, current.String())
				current.Reset()
				inValue = false
				continue
			}
			current.WriteByte(ch)
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// FromType derives a Definition using the shared generator.
func FromType(t reflect.Type) (*Definition, error) {
	return defaultGenerator.FromType(t)
}

// MustFromType is like FromType but panics on error. Intended for package
// level schema variables.
func MustFromType(t reflect.Type) *Definition {
	def, err := FromType(t)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return def
}
