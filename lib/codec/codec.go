package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ValentinKolb/skv/lib/schema"
)

// Marshal encodes v into its positional form.
func Marshal[T any](s schema.Schema[T], v T) ([]byte, error) {
	return Encode(s.Shape(), v)
}

// Unmarshal parses data written by Marshal (or Encode with the same shape) and decodes it with s.
func Unmarshal[T any](s schema.Schema[T], data []byte) (T, error) {
	tree, err := Parse(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.Decode(tree)
}

// Encode serializes value in the positional form of shape.
//
// The value is first mapped to its JSON tree by encoding/json, so json tags, omitempty and custom
// marshalers behave as usual. Object nodes of that tree are then replaced by arrays that list
// the field values in the order of the shape. Absent fields become null.
func Encode(shape *schema.Shape, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	tree, err := Parse(data)
	if err != nil {
		return nil, err
	}
	positional, err := Positional(shape, tree)
	if err != nil {
		return nil, err
	}
	return json.Marshal(positional)
}

// Parse parses a JSON document into a structural tree, numbers are kept as json.Number.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrShapeMismatch, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after value", schema.ErrShapeMismatch)
	}
	return tree, nil
}

// Positional converts a named structural tree into its positional form.
// Nodes of kind any are kept as they are.
func Positional(shape *schema.Shape, tree any) (any, error) {
	return positional(shape, tree, "$")
}

func positional(shape *schema.Shape, node any, path string) (any, error) {
	if node == nil {
		return nil, nil
	}

	switch shape.Kind {
	case schema.KindObject:
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w at %s: expected object, got %T", schema.ErrShapeMismatch, path, node)
		}
		out := make([]any, len(shape.Fields))
		for i, f := range shape.Fields {
			v, err := positional(f.Shape, obj[f.Name], path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		for name := range obj {
			if _, ok := shape.Field(name); !ok {
				return nil, fmt.Errorf("%w at %s: unknown field %q", schema.ErrShapeMismatch, path, name)
			}
		}
		return out, nil

	case schema.KindArray:
		items, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w at %s: expected array, got %T", schema.ErrShapeMismatch, path, node)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := positional(shape.Elem, item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case schema.KindMap:
		entries, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w at %s: expected map, got %T", schema.ErrShapeMismatch, path, node)
		}
		out := make(map[string]any, len(entries))
		for k, item := range entries {
			v, err := positional(shape.Elem, item, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	default:
		return node, nil
	}
}
