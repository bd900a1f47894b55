package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("model")

var (
	// ErrNotInitialized is returned when the connection did not become ready in time (or failed to connect).
	// It is a setup error and is not retried.
	ErrNotInitialized = errors.New("connection not initialized")
	// ErrNotFound is returned by Require if the key does not exist
	ErrNotFound = errors.New("key not found")
	// ErrInvalidOptions is returned by New for invalid model options
	ErrInvalidOptions = errors.New("invalid model options")
)

// Connection is the store connection used by a Client. It is implemented by conn.Connection.
//
// If the connection also implements
//
//	Done() <-chan struct{}
//	Err() error
//
// the readiness gate waits for Done instead of polling IsReady.
type Connection interface {
	// Connect starts connecting, it must not block.
	Connect()
	// Destroy closes the connection.
	Destroy() error
	// IsReady reports whether store operations can be issued.
	IsReady() bool

	Set(key string, value []byte) error
	SetEx(key string, value []byte, ttl time.Duration) error
	Get(key string) (value []byte, loaded bool, err error)
	Delete(key string) (deleted bool, err error)
	Expire(key string, ttl time.Duration, mode store.ExpireMode) (applied bool, err error)
	ExpireAt(key string, at time.Time, mode store.ExpireMode) (applied bool, err error)
	TTL(key string) (ttl time.Duration, loaded bool, err error)
}

// notifier is the optional one-shot readiness notification of a Connection.
type notifier interface {
	Done() <-chan struct{}
	Err() error
}

// --------------------------------------------------------------------------
// Client Configuration
// --------------------------------------------------------------------------

// Config holds the client configuration. Zero values are replaced by the defaults.
type Config struct {
	// RandomKeyBytesCount is the number of random bytes of keys created by SetRandomKey (default 16)
	RandomKeyBytesCount int
	// RandomNamespaceLength is the number of digest bytes of derived namespaces (default 8)
	RandomNamespaceLength int
	// Gate bounds the wait for the connection to become ready
	Gate Gate
	// OnDetachedError is called with errors of operations nobody waits for (the delete after a read-once get)
	OnDetachedError func(op, key string, err error)
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		RandomKeyBytesCount:   16,
		RandomNamespaceLength: 8,
		Gate:                  DefaultGate(),
	}
}

func (c *Config) withDefaults() Config {
	d := DefaultConfig()
	out := *c
	if out.RandomKeyBytesCount <= 0 {
		out.RandomKeyBytesCount = d.RandomKeyBytesCount
	}
	if out.RandomNamespaceLength <= 0 {
		out.RandomNamespaceLength = d.RandomNamespaceLength
	}
	if out.Gate.Interval <= 0 {
		out.Gate.Interval = d.Gate.Interval
	}
	if out.Gate.Attempts <= 0 {
		out.Gate.Attempts = d.Gate.Attempts
	}
	return out
}

func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("Model Client Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Random Key Bytes: %d\n", c.RandomKeyBytesCount))
	sb.WriteString(fmt.Sprintf("  Namespace Length: %d\n", c.RandomNamespaceLength))
	sb.WriteString(fmt.Sprintf("  Gate Interval: %s\n", c.Gate.Interval))
	sb.WriteString(fmt.Sprintf("  Gate Attempts: %d\n", c.Gate.Attempts))
	return sb.String()
}

// --------------------------------------------------------------------------
// Model Options
// --------------------------------------------------------------------------

// Options configure a single model.
type Options struct {
	// TTL of every value written by Set, in whole seconds (0 = values do not expire)
	TTL time.Duration
	// ReadOnce deletes a value after it was read
	ReadOnce bool
	// Namespace overrides the namespace derived from the shape and the options above
	Namespace string
}

func (o Options) validate() error {
	if o.TTL < 0 {
		return fmt.Errorf("%w: negative ttl %s", ErrInvalidOptions, o.TTL)
	}
	if o.TTL%time.Second != 0 {
		return fmt.Errorf("%w: ttl %s is not a whole number of seconds", ErrInvalidOptions, o.TTL)
	}
	return nil
}
