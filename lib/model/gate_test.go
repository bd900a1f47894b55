package model

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/conn"
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/lstore"
)

// pollingConn is a Connection without a Done channel.
type pollingConn struct {
	*conn.Connection
	ready atomic.Bool
}

func (p *pollingConn) IsReady() bool {
	return p.ready.Load()
}

// withoutNotifier hides Done and Err of the embedded connection.
type withoutNotifier struct {
	Connection
}

func newPollingConn(t *testing.T) (Connection, *pollingConn) {
	c := conn.New(conn.Local(nil))
	c.Connect()
	<-c.Done()
	t.Cleanup(func() { _ = c.Destroy() })

	p := &pollingConn{Connection: c}
	return withoutNotifier{p}, p
}

func TestGateReady(t *testing.T) {
	c := conn.New(conn.Local(nil))
	c.Connect()
	<-c.Done()
	defer c.Destroy()

	start := time.Now()
	if err := DefaultGate().Await(c); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Await on a ready connection took %s", elapsed)
	}
}

func TestGatePolling(t *testing.T) {
	t.Run("Timeout", func(t *testing.T) {
		c, _ := newPollingConn(t)
		gate := Gate{Interval: 10 * time.Millisecond, Attempts: 5}

		start := time.Now()
		err := gate.Await(c)
		elapsed := time.Since(start)

		if !errors.Is(err, ErrNotInitialized) {
			t.Fatalf("Expected ErrNotInitialized, got %v", err)
		}
		if elapsed < gate.Timeout() {
			t.Errorf("Await gave up after %s, before the ceiling of %s", elapsed, gate.Timeout())
		}
	})

	t.Run("BecomesReady", func(t *testing.T) {
		c, p := newPollingConn(t)
		gate := Gate{Interval: 10 * time.Millisecond, Attempts: 100}

		time.AfterFunc(30*time.Millisecond, func() { p.ready.Store(true) })

		if err := gate.Await(c); err != nil {
			t.Fatalf("Await failed: %v", err)
		}
	})
}

func TestGateNotifier(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		release := make(chan struct{})
		c := conn.New(func() (store.IStore, error) {
			<-release
			return lstore.NewLocalStore(nil), nil
		})
		c.Connect()
		defer c.Destroy()

		gate := Gate{Interval: time.Second, Attempts: 10}
		time.AfterFunc(20*time.Millisecond, func() { close(release) })

		start := time.Now()
		if err := gate.Await(c); err != nil {
			t.Fatalf("Await failed: %v", err)
		}
		// the gate wakes up on Done and does not wait for the next poll interval
		if elapsed := time.Since(start); elapsed >= gate.Interval {
			t.Errorf("Await took %s", elapsed)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		c := conn.New(func() (store.IStore, error) {
			<-release
			return lstore.NewLocalStore(nil), nil
		})
		c.Connect()
		defer c.Destroy()

		gate := Gate{Interval: 10 * time.Millisecond, Attempts: 5}
		start := time.Now()
		err := gate.Await(c)

		if !errors.Is(err, ErrNotInitialized) {
			t.Fatalf("Expected ErrNotInitialized, got %v", err)
		}
		if elapsed := time.Since(start); elapsed < gate.Timeout() {
			t.Errorf("Await gave up after %s, before the ceiling of %s", elapsed, gate.Timeout())
		}
	})

	t.Run("DialError", func(t *testing.T) {
		dialErr := errors.New("connection refused")
		c := conn.New(func() (store.IStore, error) { return nil, dialErr })
		c.Connect()

		err := DefaultGate().Await(c)
		if !errors.Is(err, ErrNotInitialized) || !errors.Is(err, dialErr) {
			t.Errorf("Expected ErrNotInitialized wrapping the dial error, got %v", err)
		}
	})
}
