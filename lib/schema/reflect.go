package schema

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType          = reflect.TypeFor[time.Time]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// ShapeOf derives the shape of a Go type, following the encoding/json mapping of that type.
//
// Struct fields are named by their json tag (or the Go field name), keep their declaration order,
// and are optional when tagged omitempty. Embedded structs are flattened. Types with their own
// json.Marshaler become opaque (KindAny), types with encoding.TextMarshaler become strings.
// Recursive types, channels, functions and complex numbers are rejected with ErrUnsupportedType.
func ShapeOf(t reflect.Type) (*Shape, error) {
	return shapeOf(t, map[reflect.Type]bool{})
}

func shapeOf(t reflect.Type, visiting map[reflect.Type]bool) (*Shape, error) {
	if t == timeType {
		return &Shape{Kind: KindString, Format: "date-time"}, nil
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType) {
			return &Shape{Kind: KindAny, Nullable: true}, nil
		}
		if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
			return &Shape{Kind: KindString}, nil
		}
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := shapeOf(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		nullable := *elem
		nullable.Nullable = true
		return &nullable, nil

	case reflect.Interface:
		return &Shape{Kind: KindAny, Nullable: true}, nil

	case reflect.Bool:
		return &Shape{Kind: KindBool}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Shape{Kind: KindInt}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Shape{Kind: KindUint}, nil

	case reflect.Float32, reflect.Float64:
		return &Shape{Kind: KindFloat}, nil

	case reflect.String:
		return &Shape{Kind: KindString}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !reflect.PointerTo(t.Elem()).Implements(jsonMarshalerType) {
			return &Shape{Kind: KindBytes, Nullable: true}, nil
		}
		elem, err := shapeOf(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindArray, Nullable: true, Elem: elem}, nil

	case reflect.Array:
		elem, err := shapeOf(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindArray, Elem: elem}, nil

	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		default:
			if !t.Key().Implements(textMarshalerType) {
				return nil, fmt.Errorf("%w: map key type %s", ErrUnsupportedType, t.Key())
			}
		}
		elem, err := shapeOf(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindMap, Nullable: true, Elem: elem}, nil

	case reflect.Struct:
		if visiting[t] {
			return nil, fmt.Errorf("%w: recursive type %s", ErrUnsupportedType, t)
		}
		visiting[t] = true
		defer delete(visiting, t)

		fields, err := structFields(t, visiting)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: KindObject, Fields: fields}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// candidate is a struct field found while walking a struct and its embedded structs.
type candidate struct {
	field  Field
	depth  int
	tagged bool
}

func structFields(t reflect.Type, visiting map[reflect.Type]bool) ([]Field, error) {
	var candidates []candidate
	if err := collectFields(t, 0, false, visiting, &candidates); err != nil {
		return nil, err
	}

	// resolve name conflicts like encoding/json: the shallowest field wins,
	// a tagged field wins over an untagged one at the same depth, otherwise all are dropped
	byName := map[string][]int{}
	var order []string
	for i, c := range candidates {
		if _, seen := byName[c.field.Name]; !seen {
			order = append(order, c.field.Name)
		}
		byName[c.field.Name] = append(byName[c.field.Name], i)
	}

	fields := make([]Field, 0, len(order))
	for _, name := range order {
		if c, ok := dominant(candidates, byName[name]); ok {
			fields = append(fields, c.field)
		}
	}
	return fields, nil
}

func dominant(candidates []candidate, idx []int) (candidate, bool) {
	best := candidates[idx[0]]
	count := 1
	for _, i := range idx[1:] {
		c := candidates[i]
		switch {
		case c.depth < best.depth, c.depth == best.depth && c.tagged && !best.tagged:
			best, count = c, 1
		case c.depth == best.depth && c.tagged == best.tagged:
			count++
		}
	}
	return best, count == 1
}

func collectFields(t reflect.Type, depth int, optional bool, visiting map[reflect.Type]bool, out *[]candidate) error {
	for i := range t.NumField() {
		sf := t.Field(i)

		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := sf.Type
			embeddedOptional := optional
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
				embeddedOptional = true
			}
			if ft.Kind() == reflect.Struct && ft != timeType {
				if visiting[ft] {
					return fmt.Errorf("%w: recursive type %s", ErrUnsupportedType, ft)
				}
				visiting[ft] = true
				err := collectFields(ft, depth+1, embeddedOptional, visiting, out)
				delete(visiting, ft)
				if err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		shape, err := shapeOf(sf.Type, visiting)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if hasOption(opts, "string") {
			switch shape.Kind {
			case KindBool, KindInt, KindUint, KindFloat, KindString:
				shape = &Shape{Kind: KindString, Nullable: shape.Nullable}
			}
		}

		tagged := name != ""
		if !tagged {
			name = sf.Name
		}
		*out = append(*out, candidate{
			field: Field{
				Name:     name,
				Optional: optional || hasOption(opts, "omitempty") || hasOption(opts, "omitzero"),
				Shape:    shape,
			},
			depth:  depth,
			tagged: tagged,
		})
	}
	return nil
}

func hasOption(opts, option string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == option {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Reflection backed Schema
// --------------------------------------------------------------------------

type reflectSchema[T any] struct {
	shape *Shape
}

// Of returns the schema of the Go type T.
func Of[T any]() (Schema[T], error) {
	shape, err := ShapeOf(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &reflectSchema[T]{shape: shape}, nil
}

// MustOf is like Of but panics if no shape can be derived for T.
func MustOf[T any]() Schema[T] {
	s, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *reflectSchema[T]) Shape() *Shape {
	return s.shape
}

func (s *reflectSchema[T]) Decode(raw any) (T, error) {
	var value T

	named, err := s.shape.Named(raw)
	if err != nil {
		return value, err
	}
	data, err := json.Marshal(named)
	if err != nil {
		return value, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return value, nil
}
