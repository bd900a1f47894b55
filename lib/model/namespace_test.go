package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/schema"
)

func TestDeriveNamespace(t *testing.T) {
	type a struct {
		UserID string `json:"userId"`
	}
	type b struct {
		UserID int `json:"userId"`
	}
	type renamed struct {
		User string `json:"userId"`
	}
	shapeA := schema.MustOf[a]().Shape()

	derive := func(shape *schema.Shape, opts Options) string {
		t.Helper()
		ns, err := DeriveNamespace(shape, opts, 8)
		if err != nil {
			t.Fatalf("DeriveNamespace failed: %v", err)
		}
		return ns
	}

	base := derive(shapeA, Options{})
	if len(base) != 11 {
		t.Errorf("Expected 11 characters for 8 bytes, got %q", base)
	}
	if strings.ContainsAny(base, "+/=") {
		t.Errorf("Namespace %q is not URL-safe", base)
	}

	if again := derive(schema.MustOf[a]().Shape(), Options{}); again != base {
		t.Errorf("Namespace is not deterministic: %q != %q", again, base)
	}
	// Go field names are not part of the shape
	if same := derive(schema.MustOf[renamed]().Shape(), Options{}); same != base {
		t.Errorf("Equal shapes got different namespaces: %q != %q", same, base)
	}

	different := map[string]string{
		"shape":    derive(schema.MustOf[b]().Shape(), Options{}),
		"ttl":      derive(shapeA, Options{TTL: time.Minute}),
		"readOnce": derive(shapeA, Options{ReadOnce: true}),
	}
	for name, ns := range different {
		if ns == base {
			t.Errorf("Namespace does not depend on %s", name)
		}
	}

	if ns := derive(shapeA, Options{Namespace: "sessions"}); ns != "sessions" {
		t.Errorf("Explicit namespace not used, got %q", ns)
	}

	if _, err := DeriveNamespace(shapeA, Options{}, 0); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions for length 0, got %v", err)
	}
}

func TestNamespaceLength(t *testing.T) {
	client := NewClient(nil, &Config{RandomNamespaceLength: 4})
	m, err := New(client, schema.MustOf[session](), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(m.Namespace()) != 6 {
		t.Errorf("Expected 6 characters for 4 bytes, got %q", m.Namespace())
	}
	if m.Key("k") != m.Namespace()+"+k" {
		t.Errorf("Unexpected full key %q", m.Key("k"))
	}
}
