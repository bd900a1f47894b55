package schema

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrShapeMismatch is returned when a value does not conform to a shape
	ErrShapeMismatch = errors.New("value does not match shape")
	// ErrUnsupportedType is returned when no shape can be derived for a type or schema document
	ErrUnsupportedType = errors.New("unsupported type")
)

// --------------------------------------------------------------------------
// Kinds
// --------------------------------------------------------------------------

// Kind is the structural kind of a shape node.
type Kind uint8

const (
	KindAny    Kind = iota // Opaque value, passed through unchanged.
	KindBool               // JSON boolean.
	KindInt                // JSON number without fraction.
	KindUint               // JSON number without fraction, >= 0.
	KindFloat              // JSON number.
	KindString             // JSON string.
	KindBytes              // JSON string holding standard base64.
	KindObject             // Named fields in a fixed order.
	KindArray              // Sequence of Elem.
	KindMap                // String keys to Elem.
)

var kindNames = map[Kind]string{
	KindAny:    "any",
	KindBool:   "bool",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindObject: "object",
	KindArray:  "array",
	KindMap:    "map",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown kind %d", k)
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", name)
}

// --------------------------------------------------------------------------
// Shape
// --------------------------------------------------------------------------

// Shape describes the structure of a value. Object nodes carry their field names in a fixed order,
// which is what the positional encoding of the codec package relies on.
//
// The JSON form of a shape is stable and used as input for namespace derivation.
type Shape struct {
	Kind     Kind    `json:"kind"`
	Nullable bool    `json:"nullable,omitempty"`
	Format   string  `json:"format,omitempty"` // Informational string format, e.g. "date-time"
	Fields   []Field `json:"fields,omitempty"` // KindObject only
	Elem     *Shape  `json:"elem,omitempty"`   // KindArray and KindMap only
}

// Field is a named member of an object shape.
type Field struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"` // May be absent (encoded as null)
	Shape    *Shape `json:"shape"`
}

// FieldNames returns the field names of an object shape in declaration order.
func (s *Shape) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the field with the given name.
func (s *Shape) Field(name string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// String returns a compact, human-readable form of the shape, e.g. "{id:int name:string? tags:[string]?}".
func (s *Shape) String() string {
	var sb strings.Builder
	s.write(&sb)
	return sb.String()
}

func (s *Shape) write(sb *strings.Builder) {
	switch s.Kind {
	case KindObject:
		sb.WriteByte('{')
		for i, f := range s.Fields {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(f.Name)
			if f.Optional {
				sb.WriteByte('?')
			}
			sb.WriteByte(':')
			f.Shape.write(sb)
		}
		sb.WriteByte('}')
	case KindArray:
		sb.WriteByte('[')
		s.Elem.write(sb)
		sb.WriteByte(']')
	case KindMap:
		sb.WriteString("map[")
		s.Elem.write(sb)
		sb.WriteByte(']')
	default:
		sb.WriteString(s.Kind.String())
	}
	if s.Nullable && s.Kind != KindAny {
		sb.WriteByte('?')
	}
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Named checks a structural value against the shape and returns it with all field names attached.
//
// Object nodes are accepted as positional arrays (as written by the codec package) or as
// named objects. Numbers are returned as json.Number and optional fields holding null are left out.
// Any violation is reported as an error wrapping ErrShapeMismatch.
func (s *Shape) Named(raw any) (any, error) {
	return s.named(raw, "$")
}

func mismatch(path string, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", ErrShapeMismatch, path, fmt.Sprintf(format, args...))
}

func (s *Shape) named(raw any, path string) (any, error) {
	if raw == nil {
		if s.Nullable || s.Kind == KindAny {
			return nil, nil
		}
		return nil, mismatch(path, "null for non-nullable %s", s.Kind)
	}

	switch s.Kind {
	case KindAny:
		return raw, nil

	case KindBool:
		if _, ok := raw.(bool); !ok {
			return nil, mismatch(path, "expected bool, got %T", raw)
		}
		return raw, nil

	case KindInt, KindUint, KindFloat:
		return s.number(raw, path)

	case KindString:
		if _, ok := raw.(string); !ok {
			return nil, mismatch(path, "expected string, got %T", raw)
		}
		return raw, nil

	case KindBytes:
		str, ok := raw.(string)
		if !ok {
			return nil, mismatch(path, "expected base64 string, got %T", raw)
		}
		if _, err := base64.StdEncoding.DecodeString(str); err != nil {
			return nil, mismatch(path, "invalid base64: %v", err)
		}
		return raw, nil

	case KindObject:
		return s.object(raw, path)

	case KindArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, mismatch(path, "expected array, got %T", raw)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := s.Elem.named(item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case KindMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch(path, "expected map, got %T", raw)
		}
		out := make(map[string]any, len(entries))
		for k, item := range entries {
			v, err := s.Elem.named(item, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	default:
		return nil, mismatch(path, "unknown kind %d", s.Kind)
	}
}

func (s *Shape) object(raw any, path string) (any, error) {
	out := make(map[string]any, len(s.Fields))

	switch v := raw.(type) {
	case []any:
		if len(v) > len(s.Fields) {
			return nil, mismatch(path, "%d values for %d fields", len(v), len(s.Fields))
		}
		for i, f := range s.Fields {
			// trailing fields may be missing
			var item any
			if i < len(v) {
				item = v[i]
			}
			if err := f.set(out, item, path); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for _, f := range s.Fields {
			if err := f.set(out, v[f.Name], path); err != nil {
				return nil, err
			}
		}
	default:
		return nil, mismatch(path, "expected object, got %T", raw)
	}

	return out, nil
}

func (f *Field) set(out map[string]any, item any, path string) error {
	if item == nil {
		switch {
		case f.Optional:
			return nil
		case !f.Shape.Nullable && f.Shape.Kind != KindAny:
			return mismatch(path+"."+f.Name, "missing required field")
		}
	}
	v, err := f.Shape.named(item, path+"."+f.Name)
	if err != nil {
		return err
	}
	out[f.Name] = v
	return nil
}

func (s *Shape) number(raw any, path string) (any, error) {
	var n json.Number
	switch v := raw.(type) {
	case json.Number:
		n = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, mismatch(path, "non-finite number")
		}
		n = json.Number(strconv.FormatFloat(v, 'g', -1, 64))
	case int:
		n = json.Number(strconv.Itoa(v))
	case int64:
		n = json.Number(strconv.FormatInt(v, 10))
	case uint64:
		n = json.Number(strconv.FormatUint(v, 10))
	default:
		return nil, mismatch(path, "expected number, got %T", raw)
	}

	switch s.Kind {
	case KindInt:
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return nil, mismatch(path, "expected integer, got %s", n)
		}
	case KindUint:
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			return nil, mismatch(path, "expected unsigned integer, got %s", n)
		}
	default:
		if _, err := n.Float64(); err != nil {
			return nil, mismatch(path, "expected number, got %s", n)
		}
	}
	return n, nil
}
