package model

import (
	"fmt"
	"time"
)

// Gate waits for a connection to become ready.
// The total wait is bounded by Interval * Attempts.
type Gate struct {
	Interval time.Duration // Time between two readiness checks (default 100ms)
	Attempts int           // Number of checks before giving up (default 300)
}

// DefaultGate returns a gate that waits up to 30 seconds.
func DefaultGate() Gate {
	return Gate{
		Interval: 100 * time.Millisecond,
		Attempts: 300,
	}
}

// Timeout returns the maximal time Await blocks.
func (g Gate) Timeout() time.Duration {
	return g.Interval * time.Duration(g.Attempts)
}

// Await returns nil as soon as conn is ready and ErrNotInitialized if it does not get ready in time.
// Connections with a Done channel are awaited directly, all others are polled.
func (g Gate) Await(conn Connection) error {
	if conn.IsReady() {
		return nil
	}
	if n, ok := conn.(notifier); ok {
		return g.awaitDone(conn, n)
	}
	return g.poll(conn)
}

func (g Gate) awaitDone(conn Connection, n notifier) error {
	timer := time.NewTimer(g.Timeout())
	defer timer.Stop()

	select {
	case <-n.Done():
		if conn.IsReady() {
			return nil
		}
		if err := n.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotInitialized, err)
		}
		return ErrNotInitialized
	case <-timer.C:
		return fmt.Errorf("%w: not ready after %s", ErrNotInitialized, g.Timeout())
	}
}

func (g Gate) poll(conn Connection) error {
	for range g.Attempts {
		time.Sleep(g.Interval)
		if conn.IsReady() {
			return nil
		}
	}
	return fmt.Errorf("%w: not ready after %d attempts", ErrNotInitialized, g.Attempts)
}
