package conn

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("conn")

var (
	// ErrNotConnected is returned by store operations before the connection is ready
	ErrNotConnected = errors.New("connection is not ready")
	// ErrDestroyed is returned by Connect and store operations after Destroy
	ErrDestroyed = errors.New("connection was destroyed")
)

// Dialer opens the store a Connection talks to.
type Dialer func() (store.IStore, error)

// Connection wraps a store that is opened asynchronously.
// Readiness flips from false to true exactly once, when the dialer succeeds.
type Connection struct {
	dial Dialer

	once  sync.Once
	ready atomic.Bool
	done  chan struct{}

	mu        sync.RWMutex
	store     store.IStore
	err       error
	destroyed bool
}

// New creates a Connection that uses dial to open its store. Nothing is dialed until Connect is called.
func New(dial Dialer) *Connection {
	return &Connection{
		dial: dial,
		done: make(chan struct{}),
	}
}

// Connect starts dialing in the background. Calling it more than once has no effect.
func (c *Connection) Connect() {
	c.once.Do(func() {
		go c.connect()
	})
}

func (c *Connection) connect() {
	defer close(c.done)

	s, err := c.dial()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err != nil:
		c.err = fmt.Errorf("dial: %w", err)
		log.Errorf("failed to connect: %v", err)
	case c.destroyed:
		// destroyed while dialing
		c.err = ErrDestroyed
		if cerr := s.Close(); cerr != nil {
			log.Warningf("failed to close store after destroy: %v", cerr)
		}
	default:
		c.store = s
		c.ready.Store(true)
		log.Debugf("connection ready")
	}
}

// IsReady reports whether the store was opened successfully.
func (c *Connection) IsReady() bool {
	return c.ready.Load()
}

// Done returns a channel that is closed once dialing finished, successfully or not.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the dial error, if any.
func (c *Connection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Destroy closes the underlying store. The connection can not be reused afterwards.
func (c *Connection) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil
	}
	c.destroyed = true

	// make sure a later Connect does not dial anymore
	c.once.Do(func() {
		c.err = ErrDestroyed
		close(c.done)
	})

	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// Close is an alias for Destroy, so that a Connection satisfies store.IStore.
func (c *Connection) Close() error {
	return c.Destroy()
}

// current returns the open store or ErrNotConnected / ErrDestroyed.
func (c *Connection) current() (store.IStore, error) {
	if !c.ready.Load() {
		return nil, ErrNotConnected
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.destroyed {
		return nil, ErrDestroyed
	}
	return c.store, nil
}

// --------------------------------------------------------------------------
// Store Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (c *Connection) Set(key string, value []byte) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	return s.Set(key, value)
}

func (c *Connection) SetEx(key string, value []byte, ttl time.Duration) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	return s.SetEx(key, value, ttl)
}

func (c *Connection) Get(key string) ([]byte, bool, error) {
	s, err := c.current()
	if err != nil {
		return nil, false, err
	}
	return s.Get(key)
}

func (c *Connection) Delete(key string) (bool, error) {
	s, err := c.current()
	if err != nil {
		return false, err
	}
	return s.Delete(key)
}

func (c *Connection) Expire(key string, ttl time.Duration, mode store.ExpireMode) (bool, error) {
	s, err := c.current()
	if err != nil {
		return false, err
	}
	return s.Expire(key, ttl, mode)
}

func (c *Connection) ExpireAt(key string, at time.Time, mode store.ExpireMode) (bool, error) {
	s, err := c.current()
	if err != nil {
		return false, err
	}
	return s.ExpireAt(key, at, mode)
}

func (c *Connection) TTL(key string) (time.Duration, bool, error) {
	s, err := c.current()
	if err != nil {
		return 0, false, err
	}
	return s.TTL(key)
}

var _ store.IStore = (*Connection)(nil)
