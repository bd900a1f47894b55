package store

import (
	"math"
	"time"
)

// maxDeadline is the latest deadline representable in unix nanoseconds.
var maxDeadline = time.Unix(0, math.MaxInt64)

// DeadlineAfter returns the deadline now+ttl in unix nanoseconds.
// Deadlines past the representable range saturate at math.MaxInt64.
func DeadlineAfter(now int64, ttl time.Duration) int64 {
	if ttl > 0 && int64(ttl) > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + int64(ttl)
}

// DeadlineAt returns at in unix nanoseconds, saturating at math.MaxInt64 for
// points in time past the year 2262.
func DeadlineAt(at time.Time) int64 {
	if at.After(maxDeadline) {
		return math.MaxInt64
	}
	return at.UnixNano()
}
