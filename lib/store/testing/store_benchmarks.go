package testing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
)

// BenchmarkFactory creates a store for a benchmark run. Benchmarks use the real clock.
type BenchmarkFactory func(b *testing.B) store.IStore

// RunStoreBenchmarks runs all benchmarks for an IStore implementation.
func RunStoreBenchmarks(b *testing.B, name string, factory BenchmarkFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory(b))
		})

		b.Run("SetEx", func(b *testing.B) {
			benchmarkSetEx(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Expire", func(b *testing.B) {
			benchmarkExpire(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, s store.IStore) {
	b.Cleanup(func() { _ = s.Close() })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			_ = s.Set(key, []byte(key))
			counter++
		}
	})
}

func benchmarkSetEx(b *testing.B, s store.IStore) {
	b.Cleanup(func() { _ = s.Close() })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			_ = s.SetEx(key, []byte(key), time.Minute)
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, s store.IStore) {
	b.Cleanup(func() { _ = s.Close() })

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		_ = s.Set(key, []byte(key))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _, _ = s.Get(fmt.Sprintf("test-key-%d", counter%numKeys))
			counter++
		}
	})
}

func benchmarkExpire(b *testing.B, s store.IStore) {
	b.Cleanup(func() { _ = s.Close() })

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		_ = s.Set(key, []byte(key))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			_, _ = s.Expire(key, time.Hour, store.ExpireAlways)
			counter++
		}
	})
}

// 60% reads, 30% writes, 10% deletes
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	b.Cleanup(func() { _ = s.Close() })

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		_ = s.Set(key, []byte(key))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", r.Intn(numKeys))
			switch op := r.Intn(10); {
			case op < 6:
				_, _, _ = s.Get(key)
			case op < 9:
				_ = s.Set(key, []byte(key))
			default:
				_, _ = s.Delete(key)
			}
		}
	})
}
