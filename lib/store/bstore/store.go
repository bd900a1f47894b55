package bstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	bolt "go.etcd.io/bbolt"
)

var log = logger.GetLogger("store")

const (
	defaultSweepInterval = time.Second // Default interval between sweeps
	headerSize           = 8           // big endian deadline in unix nanoseconds
)

var bucketName = []byte("skv")

// Options configures the bolt store during initialization
type Options struct {
	Path          string           // Path of the database file (required)
	SweepInterval time.Duration    // Time between sweeps of expired entries (0 = use default: 1s)
	Clock         func() time.Time // Source of the current time (nil = time.Now)
}

type storeImpl struct {
	db     *bolt.DB
	clock  func() time.Time
	closed atomic.Bool

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepDone     sync.WaitGroup
}

// NewBoltStore opens (or creates) the bbolt file at opts.Path and returns a store on top of it.
// Entries written by an earlier process are kept, including their deadlines.
func NewBoltStore(opts Options) (store.IStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("bolt store: path is required")
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create directory for %s: %w", opts.Path, err)
	}

	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %w", opts.Path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not ensure root bucket exists: %w", err)
	}

	s := &storeImpl{
		db:            db,
		clock:         opts.Clock,
		sweepInterval: opts.SweepInterval,
		stopSweep:     make(chan struct{}),
	}

	s.sweepDone.Add(1)
	go s.sweeper()

	log.Infof("opened bolt store at %s", opts.Path)
	return s, nil
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func encode(value []byte, deadline int64) []byte {
	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf, uint64(deadline))
	copy(buf[headerSize:], value)
	return buf
}

// decode returns the deadline and the payload of a raw bucket value.
// The payload aliases raw and is only valid inside the transaction.
func decode(raw []byte) (int64, []byte, error) {
	if len(raw) < headerSize {
		return 0, nil, store.NewError(store.RetCInternalError, "corrupt entry: value shorter than header")
	}
	return int64(binary.BigEndian.Uint64(raw)), raw[headerSize:], nil
}

func expired(deadline, now int64) bool {
	return deadline != 0 && deadline <= now
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
		gone bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw == nil {
			return nil
		}
		deadline, payload, err := decode(raw)
		if err != nil {
			return err
		}
		if expired(deadline, now) {
			gone = true
			return nil
		}
		ok = true
		data = make([]byte, len(payload))
		copy(data, payload)
		return nil
	})
	if err != nil {
		return nil, false, wrap(err)
	}

	if gone {
		s.dropIfExpired(key, now)
	}
	return data, ok, nil
}

func (s *storeImpl) Delete(key string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	now := s.now()
	var deleted bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if deadline, _, err := decode(raw); err == nil && !expired(deadline, now) {
			deleted = true
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return false, wrap(err)
	}
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
	var (
		ttl time.Duration
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw == nil {
			return nil
		}
		deadline, _, err := decode(raw)
		if err != nil {
			return err
		}
		switch {
		case expired(deadline, now):
		case deadline == 0:
			ok, ttl = true, store.NoExpiry
		default:
			ok, ttl = true, time.Duration(deadline-now)
		}
		return nil
	})
	if err != nil {
		return 0, false, wrap(err)
	}
	return ttl, ok, nil
}

func (s *storeImpl) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopSweep)
	s.sweepDone.Wait()
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *storeImpl) now() int64 {
	return s.clock().UnixNano()
}

func (s *storeImpl) checkOpen() error {
	if s.closed.Load() {
		return store.NewError(store.RetCClosed, "store is closed")
	}
	return nil
}

// wrap converts bbolt errors into store errors
func wrap(err error) error {
	if _, ok := err.(*store.Error); ok {
		return err
	}
	if err == bolt.ErrDatabaseNotOpen {
		return store.NewError(store.RetCClosed, err.Error())
	}
	return store.NewError(store.RetCInternalError, err.Error())
}

func (s *storeImpl) put(key string, value []byte, deadline int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), encode(value, deadline))
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *storeImpl) expireAt(key string, deadline int64, mode store.ExpireMode) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	now := s.now()
	var applied bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		current, payload, err := decode(raw)
		if err != nil {
			return err
		}
		if expired(current, now) {
			return b.Delete([]byte(key))
		}
		if !mode.Allows(current, deadline) {
			return nil
		}
		applied = true
		if deadline <= now {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), encode(payload, deadline))
	})
	if err != nil {
		return false, wrap(err)
	}
	return applied, nil
}

// dropIfExpired removes key if it is still expired. Errors are only logged,
// the entry is invisible to readers either way.
func (s *storeImpl) dropIfExpired(key string, now int64) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if deadline, _, err := decode(raw); err == nil && expired(deadline, now) {
			return b.Delete([]byte(key))
		}
		return nil
	})
	if err != nil && !s.closed.Load() {
		log.Warningf("could not drop expired key %q: %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Sweeping
// --------------------------------------------------------------------------

func (s *storeImpl) sweeper() {
	defer s.sweepDone.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
		}

		removed, err := s.sweep()
		if err != nil {
			log.Warningf("sweep failed: %v", err)
			continue
		}
		if removed > 0 {
			log.Debugf("sweep removed %d expired entries", removed)
		}
	}
}

// sweep removes all expired entries in a single write transaction
func (s *storeImpl) sweep() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)

		// bbolt does not allow deleting while iterating with ForEach
		var keys [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			if deadline, _, err := decode(v); err == nil && expired(deadline, now) {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	return removed, err
}
