// Package store provides the interface for an expiring key-value store with
// wall-clock deadlines, conditional expiry and unified error handling.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Expire modes (always, NX, XX, GT, LT) that restrict when a deadline may change
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. All implementations share this common interface, allowing
//     applications to switch between different storage backends without code changes.
//     An entry whose deadline has passed is treated exactly like a missing entry.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages.
//
//   - StoreFactory: A function type that abstracts the creation of IStore instances.
//
// Implementations:
//
//	The package includes two implementations of the IStore interface:
//
//	- Local Store (lstore): An in-memory store built on a concurrent map.
//	  Available in the "github.com/ValentinKolb/skv/lib/store/lstore" package.
//
//	- Bolt Store (bstore): A persistent store built on a bbolt file. Deadlines are stored
//	  next to the values, so they survive a restart.
//	  Available in the "github.com/ValentinKolb/skv/lib/store/bstore" package.
//
// The rpc/client package provides a third implementation that forwards every call to a
// remote server.
package store
