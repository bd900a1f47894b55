package lstore

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeadlineHeapSchedule(t *testing.T) {
	h := newDeadlineHeap()

	h.schedule("a", 100)
	h.schedule("b", 200)
	h.schedule("c", 50)

	if h.size() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", h.size())
	}
	if h.items[0].key != "c" {
		t.Errorf("Expected min item to be c, got %s", h.items[0].key)
	}

	// update
	h.schedule("a", 300)
	h.schedule("b", 10)
	if h.items[0].key != "b" || h.items[0].at != 10 {
		t.Errorf("Expected min item to be (b,10), got (%s,%d)", h.items[0].key, h.items[0].at)
	}

	// remove
	h.schedule("b", 0)
	h.schedule("missing", 0)
	if h.size() != 2 {
		t.Errorf("Heap should have 2 items after removal, has %d", h.size())
	}
	if _, ok := h.byKey["b"]; ok {
		t.Error("Heap should not contain b after removal")
	}
}

func TestDeadlineHeapDue(t *testing.T) {
	h := newDeadlineHeap()
	for i := 10; i > 0; i-- {
		h.schedule(fmt.Sprintf("k%02d", i), int64(i*100))
	}

	if due := h.due(50); len(due) != 0 {
		t.Errorf("Expected nothing to be due, got %v", due)
	}

	due := h.due(500)
	want := []string{"k01", "k02", "k03", "k04", "k05"}
	if diff := cmp.Diff(want, due); diff != "" {
		t.Errorf("Due keys mismatch (-want +got):\n%s", diff)
	}
	if h.size() != 5 {
		t.Errorf("Expected 5 remaining deadlines, got %d", h.size())
	}

	rest := h.due(1 << 62)
	sort.Strings(rest)
	if diff := cmp.Diff([]string{"k06", "k07", "k08", "k09", "k10"}, rest); diff != "" {
		t.Errorf("Remaining keys mismatch (-want +got):\n%s", diff)
	}
	if len(h.byKey) != 0 {
		t.Errorf("Map should be empty, has %d items", len(h.byKey))
	}
}
