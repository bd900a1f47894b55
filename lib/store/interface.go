package store

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// NoExpiry is returned by TTL for keys that exist but have no deadline.
const NoExpiry time.Duration = -1

// StoreFactory is a function type that creates a new store.
// This is used to abstract the creation of the store from the code that uses it.
type StoreFactory func() (IStore, error)

// IStore is the generic interface for interacting with an expiring key–value store.
// All deadlines are wall-clock based. An entry whose deadline has passed is treated
// exactly like a missing entry by every method.
type IStore interface {
	// Set inserts or updates a key–value pair without a deadline.
	// An existing deadline on the key is cleared.
	Set(key string, value []byte) (err error)
	// SetEx inserts or updates a key–value pair that is removed after ttl.
	// A ttl <= 0 is rejected with RetCInvalidOperation.
	SetEx(key string, value []byte, ttl time.Duration) (err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Delete removes a key–value pair. The boolean return value indicates whether the key existed.
	Delete(key string) (deleted bool, err error)
	// Expire sets the deadline of an existing key to now+ttl, subject to mode.
	// The boolean return value indicates whether the deadline was applied.
	// A ttl <= 0 removes the key (if mode allows it).
	Expire(key string, ttl time.Duration, mode ExpireMode) (applied bool, err error)
	// ExpireAt sets the deadline of an existing key to at, subject to mode.
	// A deadline that is not in the future removes the key (if mode allows it).
	ExpireAt(key string, at time.Time, mode ExpireMode) (applied bool, err error)
	// TTL returns the remaining time to live of a key, or NoExpiry if the key has no deadline.
	// The boolean return value indicates whether the key exists.
	TTL(key string) (ttl time.Duration, loaded bool, err error)
	// Close releases all resources held by the store.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Expire Modes
// --------------------------------------------------------------------------

// ExpireMode restricts when an Expire or ExpireAt call is allowed to apply.
type ExpireMode uint8

const (
	ExpireAlways ExpireMode = iota // Always apply the new deadline.
	ExpireNX                       // Only if the key has no deadline.
	ExpireXX                       // Only if the key already has a deadline.
	ExpireGT                       // Only if the new deadline is later than the current one.
	ExpireLT                       // Only if the new deadline is earlier than the current one.
)

// String returns the string representation of an ExpireMode.
func (m ExpireMode) String() string {
	switch m {
	case ExpireAlways:
		return "always"
	case ExpireNX:
		return "nx"
	case ExpireXX:
		return "xx"
	case ExpireGT:
		return "gt"
	case ExpireLT:
		return "lt"
	default:
		return "unknown"
	}
}

// ParseExpireMode converts the string representation of a mode back to an ExpireMode.
// The empty string is accepted as ExpireAlways.
func ParseExpireMode(s string) (ExpireMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return ExpireAlways, nil
	case "nx":
		return ExpireNX, nil
	case "xx":
		return ExpireXX, nil
	case "gt":
		return ExpireGT, nil
	case "lt":
		return ExpireLT, nil
	default:
		return ExpireAlways, fmt.Errorf("invalid expire mode %q (expected one of: always, nx, xx, gt, lt)", s)
	}
}

// Allows reports whether a new deadline may replace the current one.
// Deadlines are unix nanoseconds, 0 means the key has no deadline (which counts as infinitely far away).
func (m ExpireMode) Allows(current, next int64) bool {
	switch m {
	case ExpireNX:
		return current == 0
	case ExpireXX:
		return current != 0
	case ExpireGT:
		return current != 0 && next > current
	case ExpireLT:
		return current == 0 || next < current
	default:
		return true
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the store.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCClosed                              // 4: The store was closed.
)

// String returns the string representation of a RetCode.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
