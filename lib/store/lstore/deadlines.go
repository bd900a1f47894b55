package lstore

import (
	"container/heap"
	"sync"
)

// deadline is a scheduled expiry of a key
type deadline struct {
	key   string
	at    int64 // unix nanoseconds
	index int   // index in the heap, maintained by the heap package
}

// deadlineHeap is a min-heap of deadlines with O(1) access by key.
// It lets the garbage collector visit only entries that are due instead of scanning the whole store.
//
// The heap is safe for concurrent use.
type deadlineHeap struct {
	mu    sync.Mutex
	items []*deadline
	byKey map[string]*deadline
}

func newDeadlineHeap() *deadlineHeap {
	return &deadlineHeap{
		byKey: make(map[string]*deadline),
	}
}

// heap.Interface, callers must hold mu

func (h *deadlineHeap) Len() int { return len(h.items) }

func (h *deadlineHeap) Less(i, j int) bool { return h.items[i].at < h.items[j].at }

func (h *deadlineHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	d := x.(*deadline)
	d.index = len(h.items)
	h.items = append(h.items, d)
	h.byKey[d.key] = d
}

func (h *deadlineHeap) Pop() any {
	old := h.items
	n := len(old)
	d := old[n-1]
	old[n-1] = nil // avoid memory leak
	d.index = -1
	h.items = old[:n-1]
	delete(h.byKey, d.key)
	return d
}

// schedule sets the deadline of key, at == 0 removes it
func (h *deadlineHeap) schedule(key string, at int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, exists := h.byKey[key]
	switch {
	case at == 0 && exists:
		heap.Remove(h, d.index)
	case at == 0:
	case exists:
		d.at = at
		heap.Fix(h, d.index)
	default:
		heap.Push(h, &deadline{key: key, at: at})
	}
}

// due removes and returns all keys whose deadline is <= now
func (h *deadlineHeap) due(now int64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var keys []string
	for len(h.items) > 0 && h.items[0].at <= now {
		keys = append(keys, heap.Pop(h).(*deadline).key)
	}
	return keys
}

// size returns the number of scheduled keys
func (h *deadlineHeap) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// clear removes all deadlines
func (h *deadlineHeap) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
	h.byKey = make(map[string]*deadline)
}
