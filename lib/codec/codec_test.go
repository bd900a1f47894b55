package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ValentinKolb/skv/lib/schema"
	"github.com/google/go-cmp/cmp"
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type track struct {
	Name   string            `json:"name"`
	Points []point           `json:"points"`
	Owner  *owner            `json:"owner"`
	Index  map[string]point  `json:"index,omitempty"`
	Note   *string           `json:"note"`
	Extra  map[string]any    `json:"extra,omitempty"`
	Raw    any               `json:"raw,omitempty"`
	Counts map[string][]uint `json:"counts,omitempty"`
}

type owner struct {
	ID    string `json:"id"`
	Admin bool   `json:"admin"`
}

func TestEncodePositional(t *testing.T) {
	s := schema.MustOf[track]()

	data, err := Marshal(s, track{
		Name:   "morning run",
		Points: []point{{1, 2}, {3.5, -4}},
		Owner:  &owner{ID: "u-1"},
		Index:  map[string]point{"start": {0, 0}},
		Raw:    map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `["morning run",[[1,2],[3.5,-4]],["u-1",false],{"start":[0,0]},null,null,{"k":"v"},null]`
	if string(data) != want {
		t.Errorf("Unexpected encoding:\n got %s\nwant %s", data, want)
	}
}

func TestRoundTrip(t *testing.T) {
	s := schema.MustOf[track]()
	note := "windy"

	tests := []struct {
		name  string
		value track
	}{
		{"zero", track{}},
		{"nested", track{
			Name:   "evening",
			Points: []point{{1, 1}},
			Owner:  &owner{ID: "u-2", Admin: true},
			Note:   &note,
		}},
		{"maps", track{
			Index:  map[string]point{"a": {1, 2}, "b": {3, 4}},
			Counts: map[string][]uint{"x": {1, 2, 3}, "y": nil},
			Extra:  map[string]any{"nested": map[string]any{"list": []any{"a", true}}},
		}},
		{"empty sequences", track{Points: []point{}, Index: map[string]point{}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Marshal(s, tc.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			got, err := Unmarshal(s, data)
			if err != nil {
				t.Fatalf("Unmarshal of %s failed: %v", data, err)
			}
			// omitempty drops empty maps
			want := tc.value
			if len(want.Index) == 0 {
				want.Index = nil
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNoFieldNamesStored(t *testing.T) {
	s := schema.MustOf[owner]()

	data, err := Marshal(s, owner{ID: "secret-field-names", Admin: true})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["secret-field-names",true]` {
		t.Errorf("Unexpected encoding: %s", data)
	}
}

func TestDynamicSchema(t *testing.T) {
	s, err := schema.FromJSONSchema([]byte(`{
		"type": "object",
		"properties": {
			"userId": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "object", "properties": {"k": {"type": "string"}}}}
		},
		"required": ["userId"]
	}`))
	if err != nil {
		t.Fatalf("FromJSONSchema failed: %v", err)
	}

	value := map[string]any{"userId": "u-1", "tags": []any{map[string]any{"k": "a"}}}
	data, err := Marshal(s, any(value))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["u-1",[["a"]]]` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	got, err := Unmarshal(s, data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(any(value), got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := Marshal(s, any(map[string]any{"userId": "u-1", "unknown": 1})); !errors.Is(err, schema.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for unknown field, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tree, err := Parse([]byte(` [1, 2.5, "x", null] `))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []any{json.Number("1"), json.Number("2.5"), "x", nil}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "[1,", "[1] [2]", "{"} {
		if _, err := Parse([]byte(bad)); !errors.Is(err, schema.ErrShapeMismatch) {
			t.Errorf("Parse(%q): expected ErrShapeMismatch, got %v", bad, err)
		}
	}
}

func TestUnmarshalShapeMismatch(t *testing.T) {
	s := schema.MustOf[owner]()

	for _, data := range []string{`["u-1"]`, `["u-1","yes"]`, `{"id":1}`, `"plain"`, `["u-1",true,3]`} {
		if _, err := Unmarshal(s, []byte(data)); !errors.Is(err, schema.ErrShapeMismatch) {
			t.Errorf("Unmarshal(%s): expected ErrShapeMismatch, got %v", data, err)
		}
	}
}
