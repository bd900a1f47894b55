// Package testing provides standardised tests and benchmarks for
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - RunStoreTests: A conformance suite for the IStore contract, including every expire mode
//   - RunStoreBenchmarks: Performance tests for the common store operations
//   - FakeClock: A manually advanced time source, so expiry can be tested without sleeping
//
// Example usage:
//
//	factory := func(t *testing.T, clock *testing.FakeClock) store.IStore {
//		return lstore.NewLocalStore(&lstore.Options{Clock: clock.Now})
//	}
//
//	storetesting.RunStoreTests(t, "LocalStore", factory)
package testing
