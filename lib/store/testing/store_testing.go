package testing

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
)

// StoreFactory is a function that creates a new instance of an IStore implementation.
// The store must read the current time from the given clock.
type StoreFactory func(t *testing.T, clock *FakeClock) store.IStore

// FakeClock is a manually advanced time source for deterministic expiry tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock that starts at a fixed point in time.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time. It can be passed as a store clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			clock := NewFakeClock()
			testSetGet(t, factory(t, clock))
		})

		t.Run("SetEx", func(t *testing.T) {
			clock := NewFakeClock()
			testSetEx(t, factory(t, clock), clock)
		})

		t.Run("Delete", func(t *testing.T) {
			clock := NewFakeClock()
			testDelete(t, factory(t, clock), clock)
		})

		t.Run("Expire", func(t *testing.T) {
			clock := NewFakeClock()
			testExpire(t, factory(t, clock), clock)
		})

		t.Run("ExpireAt", func(t *testing.T) {
			clock := NewFakeClock()
			testExpireAt(t, factory(t, clock), clock)
		})

		t.Run("FarFutureDeadline", func(t *testing.T) {
			clock := NewFakeClock()
			testFarFutureDeadline(t, factory(t, clock), clock)
		})

		t.Run("ExpireModes", func(t *testing.T) {
			clock := NewFakeClock()
			testExpireModes(t, factory(t, clock))
		})

		t.Run("TTL", func(t *testing.T) {
			clock := NewFakeClock()
			testTTL(t, factory(t, clock), clock)
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			clock := NewFakeClock()
			testManyExpiringKeys(t, factory(t, clock), clock)
		})

		t.Run("ConcurrentAccess", func(t *testing.T) {
			clock := NewFakeClock()
			testConcurrentAccess(t, factory(t, clock))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustGet(t *testing.T, s store.IStore, key string) ([]byte, bool) {
	t.Helper()
	value, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", key, err)
	}
	return value, ok
}

func mustSet(t *testing.T, s store.IStore, key string, value []byte) {
	t.Helper()
	if err := s.Set(key, value); err != nil {
		t.Fatalf("Set(%s) failed: %v", key, err)
	}
}

func mustSetEx(t *testing.T, s store.IStore, key string, value []byte, ttl time.Duration) {
	t.Helper()
	if err := s.SetEx(key, value, ttl); err != nil {
		t.Fatalf("SetEx(%s) failed: %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, s, testKey, testValue1)

	result, exists := mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, s, testKey, testValue2)

	result, exists = mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = mustGet(t, s, "nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// the returned slice must be a copy
	retrievedValue, _ := mustGet(t, s, testKey)
	retrievedValue[0] = 'X'
	originalValue, _ := mustGet(t, s, testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// empty values are values
	mustSet(t, s, "empty", []byte{})
	if value, exists := mustGet(t, s, "empty"); !exists || len(value) != 0 {
		t.Errorf("Expected empty value to exist, got exists=%v value=%v", exists, value)
	}
}

func testSetEx(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	testKey := "expiring-key"
	testValue := []byte("expiring-value")

	mustSetEx(t, s, testKey, testValue, 10*time.Second)

	clock.Advance(9 * time.Second)
	result, exists := mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Key should still exist after 9s")
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}

	clock.Advance(time.Second)
	if _, exists = mustGet(t, s, testKey); exists {
		t.Errorf("Key should have expired after 10s")
	}

	// Set clears an existing deadline
	mustSetEx(t, s, testKey, testValue, time.Second)
	mustSet(t, s, testKey, testValue)
	clock.Advance(time.Hour)
	if _, exists = mustGet(t, s, testKey); !exists {
		t.Errorf("Set should clear the deadline of an existing key")
	}

	if err := s.SetEx("invalid-ttl", testValue, 0); err == nil {
		t.Errorf("Expected SetEx with ttl=0 to fail")
	}
}

func testDelete(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	testKey := "delete-test-key"
	mustSet(t, s, testKey, []byte("delete-test-value"))

	deleted, err := s.Delete(testKey)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Errorf("Expected Delete to report an existing key")
	}
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	deleted, err = s.Delete("nonexistent-key")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted {
		t.Errorf("Expected Delete to report a missing key")
	}

	// an expired key counts as missing
	mustSetEx(t, s, "expired-key", []byte("v"), time.Second)
	clock.Advance(2 * time.Second)
	if deleted, _ = s.Delete("expired-key"); deleted {
		t.Errorf("Expected Delete to report an expired key as missing")
	}
}

func testExpire(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	testKey := "expire-test-key"
	mustSet(t, s, testKey, []byte("expire-test-value"))

	applied, err := s.Expire(testKey, 5*time.Second, store.ExpireAlways)
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if !applied {
		t.Errorf("Expected Expire to apply to an existing key")
	}

	clock.Advance(4 * time.Second)
	if _, exists := mustGet(t, s, testKey); !exists {
		t.Errorf("Expected key %s to exist before its deadline", testKey)
	}
	clock.Advance(time.Second)
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Expected key %s to not exist after its deadline", testKey)
	}

	// missing keys are never created
	if applied, _ = s.Expire("nonexistent-key", time.Second, store.ExpireAlways); applied {
		t.Errorf("Expected Expire on a missing key to not apply")
	}
	if _, exists := mustGet(t, s, "nonexistent-key"); exists {
		t.Errorf("Expire must not create keys")
	}

	// a non positive ttl removes the key
	mustSet(t, s, testKey, []byte("v"))
	if applied, _ = s.Expire(testKey, 0, store.ExpireAlways); !applied {
		t.Errorf("Expected Expire with ttl=0 to apply")
	}
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Expected Expire with ttl=0 to remove the key")
	}
}

func testExpireAt(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	testKey := "expire-at-key"
	mustSet(t, s, testKey, []byte("value"))

	at := clock.Now().Add(time.Minute)
	applied, err := s.ExpireAt(testKey, at, store.ExpireAlways)
	if err != nil {
		t.Fatalf("ExpireAt failed: %v", err)
	}
	if !applied {
		t.Errorf("Expected ExpireAt to apply to an existing key")
	}

	clock.Advance(59 * time.Second)
	if _, exists := mustGet(t, s, testKey); !exists {
		t.Errorf("Expected key %s to exist before its deadline", testKey)
	}
	clock.Advance(time.Second)
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Expected key %s to not exist at its deadline", testKey)
	}

	// a deadline in the past removes the key
	mustSet(t, s, testKey, []byte("value"))
	if applied, _ = s.ExpireAt(testKey, clock.Now().Add(-time.Hour), store.ExpireAlways); !applied {
		t.Errorf("Expected ExpireAt in the past to apply")
	}
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Expected ExpireAt in the past to remove the key")
	}
}

func testFarFutureDeadline(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	farFuture := time.Duration(math.MaxInt64)

	mustSetEx(t, s, "setex-key", []byte("value"), farFuture)
	if _, exists := mustGet(t, s, "setex-key"); !exists {
		t.Errorf("Expected key set with a far future ttl to exist")
	}

	mustSet(t, s, "expire-key", []byte("value"))
	if applied, err := s.Expire("expire-key", farFuture, store.ExpireAlways); err != nil || !applied {
		t.Fatalf("Expire with a far future ttl: applied=%v err=%v", applied, err)
	}

	mustSet(t, s, "expire-at-key", []byte("value"))
	at := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	if applied, err := s.ExpireAt("expire-at-key", at, store.ExpireAlways); err != nil || !applied {
		t.Fatalf("ExpireAt in the year 3000: applied=%v err=%v", applied, err)
	}

	clock.Advance(100 * 365 * 24 * time.Hour)
	for _, key := range []string{"setex-key", "expire-key", "expire-at-key"} {
		if _, exists := mustGet(t, s, key); !exists {
			t.Errorf("Expected key %s with a far future deadline to exist", key)
		}
		ttl, loaded, err := s.TTL(key)
		if err != nil || !loaded {
			t.Fatalf("TTL(%s): loaded=%v err=%v", key, loaded, err)
		}
		if ttl <= 0 {
			t.Errorf("Expected a positive ttl for %s, got %v", key, ttl)
		}
	}
}

func testExpireModes(t *testing.T, s store.IStore) {
	defer s.Close()

	testCases := []struct {
		name     string
		initial  time.Duration // 0 = no deadline
		ttl      time.Duration
		mode     store.ExpireMode
		expected bool
	}{
		{"NX without deadline", 0, time.Minute, store.ExpireNX, true},
		{"NX with deadline", time.Minute, time.Hour, store.ExpireNX, false},
		{"XX without deadline", 0, time.Minute, store.ExpireXX, false},
		{"XX with deadline", time.Minute, time.Hour, store.ExpireXX, true},
		{"GT later", time.Minute, time.Hour, store.ExpireGT, true},
		{"GT earlier", time.Hour, time.Minute, store.ExpireGT, false},
		{"GT without deadline", 0, time.Hour, store.ExpireGT, false},
		{"LT earlier", time.Hour, time.Minute, store.ExpireLT, true},
		{"LT later", time.Minute, time.Hour, store.ExpireLT, false},
		{"LT without deadline", 0, time.Hour, store.ExpireLT, true},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key := fmt.Sprintf("mode-key-%d", i)
			if tc.initial == 0 {
				mustSet(t, s, key, []byte("v"))
			} else {
				mustSetEx(t, s, key, []byte("v"), tc.initial)
			}

			applied, err := s.Expire(key, tc.ttl, tc.mode)
			if err != nil {
				t.Fatalf("Expire failed: %v", err)
			}
			if applied != tc.expected {
				t.Errorf("Expected applied=%v for mode %s, got %v", tc.expected, tc.mode, applied)
			}

			ttl, exists, err := s.TTL(key)
			if err != nil {
				t.Fatalf("TTL failed: %v", err)
			}
			if !exists {
				t.Fatalf("Expected key %s to still exist", key)
			}

			want := tc.initial
			if tc.expected {
				want = tc.ttl
			}
			if want == 0 {
				want = store.NoExpiry
			}
			if ttl != want {
				t.Errorf("Expected ttl %s, got %s", want, ttl)
			}
		})
	}
}

func testTTL(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	if _, exists, err := s.TTL("nonexistent-key"); err != nil || exists {
		t.Errorf("Expected missing key to report exists=false, got exists=%v err=%v", exists, err)
	}

	mustSet(t, s, "persistent", []byte("v"))
	ttl, exists, err := s.TTL("persistent")
	if err != nil || !exists || ttl != store.NoExpiry {
		t.Errorf("Expected NoExpiry for a key without deadline, got ttl=%s exists=%v err=%v", ttl, exists, err)
	}

	mustSetEx(t, s, "expiring", []byte("v"), 30*time.Second)
	clock.Advance(10 * time.Second)
	ttl, exists, err = s.TTL("expiring")
	if err != nil || !exists {
		t.Fatalf("Expected expiring key to exist, got exists=%v err=%v", exists, err)
	}
	if ttl != 20*time.Second {
		t.Errorf("Expected ttl 20s, got %s", ttl)
	}
}

func testManyExpiringKeys(t *testing.T, s store.IStore, clock *FakeClock) {
	defer s.Close()

	numKeys := 500
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("expire-key-%d", i)
		value := []byte(fmt.Sprintf("expire-value-%d", i))
		ttl := time.Duration(i%100+1) * time.Second
		mustSetEx(t, s, key, value, ttl)
	}

	for offset := 0; offset <= 100; offset += 10 {
		for i := 0; i < numKeys; i++ {
			key := fmt.Sprintf("expire-key-%d", i)
			ttl := i%100 + 1

			_, exists := mustGet(t, s, key)
			if ttl <= offset && exists {
				t.Errorf("Key %s should have expired at offset %ds (TTL=%ds)", key, offset, ttl)
			}
			if ttl > offset && !exists {
				t.Errorf("Key %s should still exist at offset %ds (TTL=%ds)", key, offset, ttl)
			}
		}
		clock.Advance(10 * time.Second)
	}
}

func testConcurrentAccess(t *testing.T, s store.IStore) {
	defer s.Close()

	var wg sync.WaitGroup
	numWorkers := 8
	opsPerWorker := 100

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", worker, i%10)
				if err := s.Set(key, []byte(key)); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				value, ok, err := s.Get(key)
				if err != nil || !ok || string(value) != key {
					t.Errorf("Get(%s) returned %s, %v, %v", key, value, ok, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
