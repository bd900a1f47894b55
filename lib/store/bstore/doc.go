// Package bstore implements a persistent, single-node key-value store based on the
// store.IStore interface. Data is kept in a single bbolt file and survives process restarts.
//
// Implementation Details:
//
//   - Storage: All entries live in one bucket. A value is stored as an 8 byte big endian
//     deadline (unix nanoseconds, 0 = no deadline) followed by the payload.
//
//   - Expiry: Every read compares the stored deadline against the store clock, so an expired
//     entry is never returned. A read that finds an expired entry removes it. A background
//     sweeper removes the rest every SweepInterval.
//
//   - Conditional updates (Expire, ExpireAt, Delete) run in a single bbolt write transaction.
//
// Usage Example:
//
//	s, err := bstore.NewBoltStore(bstore.Options{Path: "/var/lib/skv/shard-1.db"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.SetEx("session:123", sessionData, 5*time.Minute)
package bstore
