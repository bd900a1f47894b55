package lstore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("store")

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
)

// Options configures the local store during initialization
type Options struct {
	GCInterval time.Duration    // Time between GC runs (0 = use default: 100ms)
	Clock      func() time.Time // Source of the current time (nil = time.Now)
}

// DefaultOptions returns the default local store options
func DefaultOptions() *Options {
	return &Options{
		GCInterval: defaultGCInterval,
		Clock:      time.Now,
	}
}

// entry is a single stored value with its deadline in unix nanoseconds (0 = no deadline)
type entry struct {
	value    []byte
	deadline int64
}

// expired reports whether the entry is logically gone at the given time
func (e entry) expired(now int64) bool {
	return e.deadline != 0 && e.deadline <= now
}

type storeImpl struct {
	data      *xsync.MapOf[string, entry]
	deadlines *deadlineHeap
	clock     func() time.Time
	closed    atomic.Bool

	// garbage collection
	gcInterval time.Duration
	stopGC     chan struct{}
	gcDone     sync.WaitGroup
}

// NewLocalStore creates a new local store instance with the specified options (optional).
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(opts *Options) store.IStore {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &storeImpl{
		data:       xsync.NewMapOf[string, entry](),
		deadlines:  newDeadlineHeap(),
		clock:      opts.Clock,
		gcInterval: opts.GCInterval,
		stopGC:     make(chan struct{}),
	}

	// start garbage collection
	s.gcDone.Add(1)
	go s.garbageCollector()

	return s
}

// now returns the current time in unix nanoseconds
func (s *storeImpl) now() int64 {
	return s.clock().UnixNano()
}

// checkOpen returns an error if the store was closed
func (s *storeImpl) checkOpen() error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, "store is closed")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	return s.put(key, value, 0)
}

func (s *storeImpl) SetEx(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return store.NewError(store.RetCInvalidOperation, "SetEx requires a positive ttl")
	}
	return s.put(key, value, store.DeadlineAfter(s.now(), ttl))
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	now := s.now()
	var (
		data []byte
		ok   bool
	)

	// Atomic lookup, expired entries are dropped on the way
	s.data.Compute(key, func(e entry, loaded bool) (entry, bool) {
		if !loaded || e.expired(now) {
			return e, true // set delete to true because else the value will be created
		}
		ok = true
		data = make([]byte, len(e.value))
		copy(data, e.value)
		return e, false
	})

	return data, ok, nil
}

func (s *storeImpl) Delete(key string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	now := s.now()
	var deleted bool
	s.data.Compute(key, func(e entry, loaded bool) (entry, bool) {
		deleted = loaded && !e.expired(now)
		if loaded && e.deadline != 0 {
			s.deadlines.schedule(key, 0)
		}
		return e, true
	})
	return deleted, nil
}

func (s *storeImpl) Expire(key string, ttl time.Duration, mode store.ExpireMode) (bool, error) {
	return s.expireAt(key, store.DeadlineAfter(s.now(), ttl), mode)
}

func (s *storeImpl) ExpireAt(key string, at time.Time, mode store.ExpireMode) (bool, error) {
	return s.expireAt(key, store.DeadlineAt(at), mode)
}

func (s *storeImpl) TTL(key string) (time.Duration, bool, error) {
	if err := s.checkOpen(); err != nil {
		return 0, false, err
	}

	now := s.now()
	e, ok := s.data.Load(key)
	if !ok || e.expired(now) {
		return 0, false, nil
	}
	if e.deadline == 0 {
		return store.NoExpiry, true, nil
	}
	return time.Duration(e.deadline - now), true, nil
}

func (s *storeImpl) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopGC)
		s.gcDone.Wait()
		s.data.Clear()
		s.deadlines.clear()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// put stores a copy of value under key with the given deadline (0 = none)
func (s *storeImpl) put(key string, value []byte, deadline int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	s.data.Compute(key, func(_ entry, _ bool) (entry, bool) {
		s.deadlines.schedule(key, deadline)
		return entry{value: valueCopy, deadline: deadline}, false
	})
	return nil
}

// expireAt is the shared implementation of Expire and ExpireAt.
// A deadline that is not in the future deletes the entry.
func (s *storeImpl) expireAt(key string, deadline int64, mode store.ExpireMode) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	now := s.now()
	var applied bool
	s.data.Compute(key, func(e entry, loaded bool) (entry, bool) {
		if !loaded || e.expired(now) {
			return e, true
		}
		if !mode.Allows(e.deadline, deadline) {
			return e, false
		}
		applied = true
		if deadline <= now {
			s.deadlines.schedule(key, 0)
			return e, true
		}
		e.deadline = deadline
		s.deadlines.schedule(key, deadline)
		return e, false
	})
	return applied, nil
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// garbageCollector periodically removes entries whose deadline has passed.
// Only keys that are due according to the deadline heap are visited.
// Reads never depend on it, expired entries are invisible as soon as their deadline passes.
func (s *storeImpl) garbageCollector() {
	defer s.gcDone.Done()

	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
		}

		now := s.now()
		removed := 0
		for _, key := range s.deadlines.due(now) {
			// double-check the entry is still expired, it could have been updated in the meantime
			s.data.Compute(key, func(e entry, loaded bool) (entry, bool) {
				switch {
				case !loaded:
					return e, true
				case e.expired(now):
					removed++
					return e, true
				case e.deadline != 0:
					s.deadlines.schedule(key, e.deadline)
				}
				return e, false
			})
		}

		if removed > 0 {
			log.Debugf("gc removed %d expired entries", removed)
		}
	}
}
