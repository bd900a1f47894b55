package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
)

// --------------------------------------------------------------------------
// Export
// --------------------------------------------------------------------------

// JSONSchema returns a JSON Schema (draft 2020-12) document describing the named (not positional) form of values of this shape.
func (s *Shape) JSONSchema() *jsonschema.Schema {
	doc := s.jsonSchema()
	doc.Version = jsonschema.Version
	return doc
}

func (s *Shape) jsonSchema() *jsonschema.Schema {
	if s.Kind == KindAny {
		return &jsonschema.Schema{}
	}

	js := &jsonschema.Schema{Format: s.Format}
	switch s.Kind {
	case KindBool:
		js.Type = "boolean"
	case KindInt:
		js.Type = "integer"
	case KindUint:
		js.Type = "integer"
		js.Minimum = "0"
	case KindFloat:
		js.Type = "number"
	case KindString:
		js.Type = "string"
	case KindBytes:
		js.Type = "string"
		js.ContentEncoding = "base64"
	case KindObject:
		js.Type = "object"
		js.Properties = jsonschema.NewProperties()
		for _, f := range s.Fields {
			js.Properties.Set(f.Name, f.Shape.jsonSchema())
			if !f.Optional {
				js.Required = append(js.Required, f.Name)
			}
		}
	case KindArray:
		js.Type = "array"
		js.Items = s.Elem.jsonSchema()
	case KindMap:
		js.Type = "object"
		js.AdditionalProperties = s.Elem.jsonSchema()
	}

	if s.Nullable {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{js, {Type: "null"}}}
	}
	return js
}

// --------------------------------------------------------------------------
// Import
// --------------------------------------------------------------------------

type dynamicSchema struct {
	shape *Shape
}

// FromJSONSchema parses a JSON Schema document and returns a schema for the generic values it describes.
// Decode of the returned schema yields map[string]any / []any trees with json.Number numbers.
//
// Field order follows the order of "properties" in the document. Supported keywords are
// type, properties, required, items, additionalProperties, anyOf/oneOf with a "null" member
// (nullable), format, contentEncoding "base64" and local $ref into $defs.
func FromJSONSchema(doc []byte) (Schema[any], error) {
	var js jsonschema.Schema
	if err := json.Unmarshal(doc, &js); err != nil {
		return nil, fmt.Errorf("parse json schema: %w", err)
	}
	return FromJSONSchemaDoc(&js)
}

// FromJSONSchemaDoc is like FromJSONSchema for an already parsed document.
func FromJSONSchemaDoc(doc *jsonschema.Schema) (Schema[any], error) {
	conv := &converter{root: doc, visiting: map[string]bool{}}
	shape, err := conv.shape(doc)
	if err != nil {
		return nil, err
	}
	return &dynamicSchema{shape: shape}, nil
}

func (s *dynamicSchema) Shape() *Shape {
	return s.shape
}

func (s *dynamicSchema) Decode(raw any) (any, error) {
	return s.shape.Named(raw)
}

type converter struct {
	root     *jsonschema.Schema
	visiting map[string]bool
}

func (c *converter) shape(js *jsonschema.Schema) (*Shape, error) {
	if js == nil {
		return &Shape{Kind: KindAny, Nullable: true}, nil
	}

	if js.Ref != "" {
		return c.ref(js.Ref)
	}

	if alternatives := slices.Concat(js.AnyOf, js.OneOf); len(alternatives) > 0 {
		return c.union(alternatives)
	}

	switch js.Type {
	case "", "null":
		return &Shape{Kind: KindAny, Nullable: true}, nil
	case "boolean":
		return &Shape{Kind: KindBool}, nil
	case "integer":
		if js.Minimum != "" {
			if lower, err := js.Minimum.Float64(); err == nil && lower >= 0 {
				return &Shape{Kind: KindUint, Format: js.Format}, nil
			}
		}
		return &Shape{Kind: KindInt, Format: js.Format}, nil
	case "number":
		return &Shape{Kind: KindFloat, Format: js.Format}, nil
	case "string":
		if js.ContentEncoding == "base64" {
			return &Shape{Kind: KindBytes, Format: js.Format}, nil
		}
		return &Shape{Kind: KindString, Format: js.Format}, nil
	case "array":
		elem, err := c.shape(js.Items)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindArray, Elem: elem}, nil
	case "object":
		return c.object(js)
	default:
		return nil, fmt.Errorf("%w: json schema type %q", ErrUnsupportedType, js.Type)
	}
}

func (c *converter) object(js *jsonschema.Schema) (*Shape, error) {
	if js.Properties == nil || js.Properties.Len() == 0 {
		if js.AdditionalProperties == nil {
			// free-form object, stored name-keyed
			return &Shape{Kind: KindAny, Nullable: true}, nil
		}
		elem, err := c.shape(js.AdditionalProperties)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindMap, Elem: elem}, nil
	}

	shape := &Shape{Kind: KindObject}
	for p := js.Properties.Oldest(); p != nil; p = p.Next() {
		fs, err := c.shape(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Key, err)
		}
		shape.Fields = append(shape.Fields, Field{
			Name:     p.Key,
			Optional: !slices.Contains(js.Required, p.Key),
			Shape:    fs,
		})
	}
	return shape, nil
}

func (c *converter) union(alternatives []*jsonschema.Schema) (*Shape, error) {
	var nonNull []*jsonschema.Schema
	for _, alt := range alternatives {
		if alt != nil && alt.Type == "null" && alt.Ref == "" {
			continue
		}
		nonNull = append(nonNull, alt)
	}
	if len(nonNull) != 1 {
		return &Shape{Kind: KindAny, Nullable: true}, nil
	}

	shape, err := c.shape(nonNull[0])
	if err != nil {
		return nil, err
	}
	nullable := *shape
	nullable.Nullable = nullable.Nullable || len(nonNull) < len(alternatives)
	return &nullable, nil
}

func (c *converter) ref(ref string) (*Shape, error) {
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok {
		return nil, fmt.Errorf("%w: unsupported $ref %q", ErrUnsupportedType, ref)
	}
	def, ok := c.root.Definitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown $ref %q", ErrUnsupportedType, ref)
	}
	if c.visiting[name] {
		return nil, fmt.Errorf("%w: recursive $ref %q", ErrUnsupportedType, ref)
	}
	c.visiting[name] = true
	defer delete(c.visiting, name)
	return c.shape(def)
}
