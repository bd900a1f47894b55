// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted between
// process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Wall-clock deadlines with all expire modes of the store.IStore interface
//   - Lazy expiry on access plus a background garbage collector
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Storage: Entries live in a concurrent xsync.MapOf. Every conditional update
//     (read-and-drop of expired entries, Expire with a mode, Delete) runs inside the
//     map's Compute callback, so each operation is atomic per key.
//
//   - Expiry: An entry carries its deadline in unix nanoseconds. Every read checks the
//     deadline against the store clock, so an expired entry is never returned even if the
//     garbage collector has not visited it yet.
//
//   - Garbage Collection: Deadlines are also kept in a min-heap ordered by expiry time.
//     A background goroutine pops the due keys every GCInterval and removes them, so a
//     sweep only touches expired entries. It is stopped by Close.
//
//   - Clock: The time source can be replaced through Options.Clock, which makes expiry
//     deterministic in tests.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(nil)
//	defer s.Close()
//
//	// Store a value with 5-minute expiration
//	err := s.SetEx("session:123", sessionData, 5*time.Minute)
//
//	// Retrieve the value
//	value, exists, err := s.Get("session:123")
//
// Suitable Use Cases:
//
//	The local store is ideal for:
//	- Ephemeral data that doesn't need to survive process restarts
//	- Single-node applications and embedded servers
//	- Testing and development environments
//
// For data that has to survive a restart use the bstore package, which implements the
// same interface on top of a bbolt file.
package lstore
