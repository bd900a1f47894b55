package model

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/skv/lib/codec"
	"github.com/ValentinKolb/skv/lib/schema"
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/invopop/jsonschema"
)

// Model stores values of type T under its own namespace.
// A model is immutable and safe for concurrent use.
type Model[T any] struct {
	client    *Client
	schema    schema.Schema[T]
	namespace string
	ttl       time.Duration
	readOnce  bool
	metrics   modelMetrics
}

// New creates a model for values described by s.
func New[T any](client *Client, s schema.Schema[T], opts Options) (*Model[T], error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil client", ErrInvalidOptions)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidOptions)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ns, err := DeriveNamespace(s.Shape(), opts, client.config.RandomNamespaceLength)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("created model with namespace %s for shape %s", ns, s.Shape())

	return &Model[T]{
		client:    client,
		schema:    s,
		namespace: ns,
		ttl:       opts.TTL,
		readOnce:  opts.ReadOnce,
		metrics:   modelMetrics{namespace: ns},
	}, nil
}

// Namespace returns the namespace all keys of this model are stored under.
func (m *Model[T]) Namespace() string {
	return m.namespace
}

// Key returns the store key of a user key.
func (m *Model[T]) Key(key string) string {
	return m.namespace + "+" + key
}

// Schema returns the schema of the model.
func (m *Model[T]) Schema() schema.Schema[T] {
	return m.schema
}

// JSONSchema returns the JSON Schema of the values of this model.
func (m *Model[T]) JSONSchema() *jsonschema.Schema {
	return m.schema.Shape().JSONSchema()
}

// ready waits for the connection and counts the operation.
func (m *Model[T]) ready(op string) error {
	m.metrics.op(op)
	if err := m.client.config.Gate.Await(m.client.conn); err != nil {
		m.metrics.failed(op)
		return err
	}
	return nil
}

func (m *Model[T]) done(op string, err error) {
	if err != nil {
		m.metrics.failed(op)
	}
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Set stores value under key, replacing any previous value. If the model has a ttl the value expires
// after it, otherwise it never expires. Set returns key.
func (m *Model[T]) Set(key string, value T) (_ string, err error) {
	if err := m.ready("set"); err != nil {
		return "", err
	}
	defer func() { m.done("set", err) }()

	data, err := codec.Marshal(m.schema, value)
	if err != nil {
		return "", err
	}
	payloadBytes.Update(float64(len(data)))

	if m.ttl > 0 {
		err = m.client.conn.SetEx(m.Key(key), data, m.ttl)
	} else {
		err = m.client.conn.Set(m.Key(key), data)
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the value stored under key. The boolean is false if there is no value.
// For read-once models a found value is deleted in the background.
func (m *Model[T]) Get(key string) (value T, found bool, err error) {
	if err := m.ready("get"); err != nil {
		return value, false, err
	}
	defer func() { m.done("get", err) }()

	fullKey := m.Key(key)
	data, found, err := m.client.conn.Get(fullKey)
	if err != nil || !found {
		return value, false, err
	}

	if m.readOnce {
		m.client.detach("delete", fullKey, func() error {
			_, err := m.client.conn.Delete(fullKey)
			return err
		})
	}

	value, err = codec.Unmarshal(m.schema, data)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Require is like Get but returns ErrNotFound if there is no value.
func (m *Model[T]) Require(key string) (T, error) {
	value, found, err := m.Get(key)
	if err != nil {
		return value, err
	}
	if !found {
		return value, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// Delete removes the value stored under key and reports whether there was one.
func (m *Model[T]) Delete(key string) (_ bool, err error) {
	if err := m.ready("delete"); err != nil {
		return false, err
	}
	defer func() { m.done("delete", err) }()

	return m.client.conn.Delete(m.Key(key))
}

// SetRandomKey stores value under a new random key and returns the key.
// Keys are Config.RandomKeyBytesCount random bytes in URL-safe base64 without padding.
func (m *Model[T]) SetRandomKey(value T) (string, error) {
	key, err := randomKey(m.client.config.RandomKeyBytesCount)
	if err != nil {
		return "", err
	}
	return m.Set(key, value)
}

// Expire sets the deadline of key to now + ttl, subject to mode. It reports whether the deadline was applied.
func (m *Model[T]) Expire(key string, ttl time.Duration, mode store.ExpireMode) (_ bool, err error) {
	if err := m.ready("expire"); err != nil {
		return false, err
	}
	defer func() { m.done("expire", err) }()

	return m.client.conn.Expire(m.Key(key), ttl, mode)
}

// ExpireAt sets the deadline of key to at, subject to mode. It reports whether the deadline was applied.
func (m *Model[T]) ExpireAt(key string, at time.Time, mode store.ExpireMode) (_ bool, err error) {
	if err := m.ready("expireAt"); err != nil {
		return false, err
	}
	defer func() { m.done("expireAt", err) }()

	return m.client.conn.ExpireAt(m.Key(key), at, mode)
}

// TTL returns the remaining lifetime of key (store.NoExpiry if it has no deadline).
// The boolean is false if there is no value.
func (m *Model[T]) TTL(key string) (_ time.Duration, _ bool, err error) {
	if err := m.ready("ttl"); err != nil {
		return 0, false, err
	}
	defer func() { m.done("ttl", err) }()

	return m.client.conn.TTL(m.Key(key))
}

// With gets the value of key and, if there is one, calls fn with it and returns its result.
// The boolean is false (and fn is not called) if there is no value.
func With[T, R any](m *Model[T], key string, fn func(T) R) (R, bool, error) {
	var result R
	value, found, err := m.Get(key)
	if err != nil || !found {
		return result, false, err
	}
	return fn(value), true, nil
}

func randomKey(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random key length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
