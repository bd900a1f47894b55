package lstore

import (
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	storetesting "github.com/ValentinKolb/skv/lib/store/testing"
)

func TestLocalStore(t *testing.T) {
	storetesting.RunStoreTests(t, "LocalStore", func(t *testing.T, clock *storetesting.FakeClock) store.IStore {
		return NewLocalStore(&Options{Clock: clock.Now})
	})
}

func BenchmarkLocalStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "LocalStore", func(b *testing.B) store.IStore {
		return NewLocalStore(nil)
	})
}

func TestGarbageCollector(t *testing.T) {
	clock := storetesting.NewFakeClock()
	s := NewLocalStore(&Options{Clock: clock.Now, GCInterval: 5 * time.Millisecond}).(*storeImpl)
	defer s.Close()

	for _, key := range []string{"a", "b", "c"} {
		if err := s.SetEx(key, []byte(key), time.Second); err != nil {
			t.Fatalf("SetEx failed: %v", err)
		}
	}
	if err := s.Set("persistent", []byte("p")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	clock.Advance(2 * time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for s.data.Size() > 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected gc to remove expired entries, %d entries left", s.data.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, ok := s.data.Load("persistent"); !ok {
		t.Errorf("Expected gc to keep entries without a deadline")
	}
	if n := s.deadlines.size(); n != 0 {
		t.Errorf("Expected no scheduled deadlines after gc, got %d", n)
	}
}

func TestClosedStore(t *testing.T) {
	s := NewLocalStore(nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// closing twice is fine
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	err := s.Set("key", []byte("value"))
	storeErr, ok := err.(*store.Error)
	if !ok {
		t.Fatalf("Expected *store.Error, got %T (%v)", err, err)
	}
	if storeErr.Code != store.RetCClosed {
		t.Errorf("Expected code %s, got %s", store.RetCClosed, storeErr.Code)
	}
}
