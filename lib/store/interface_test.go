package store

import (
	"math"
	"testing"
	"time"
)

func TestExpireModeAllows(t *testing.T) {
	testCases := []struct {
		mode     ExpireMode
		current  int64
		next     int64
		expected bool
	}{
		{ExpireAlways, 0, 10, true},
		{ExpireAlways, 20, 10, true},
		{ExpireNX, 0, 10, true},
		{ExpireNX, 5, 10, false},
		{ExpireXX, 0, 10, false},
		{ExpireXX, 5, 10, true},
		{ExpireGT, 5, 10, true},
		{ExpireGT, 10, 5, false},
		{ExpireGT, 10, 10, false},
		{ExpireGT, 0, 10, false},
		{ExpireLT, 10, 5, true},
		{ExpireLT, 5, 10, false},
		{ExpireLT, 0, 10, true},
	}

	for _, tc := range testCases {
		if got := tc.mode.Allows(tc.current, tc.next); got != tc.expected {
			t.Errorf("%s.Allows(%d, %d) = %v, expected %v", tc.mode, tc.current, tc.next, got, tc.expected)
		}
	}
}

func TestParseExpireMode(t *testing.T) {
	for _, mode := range []ExpireMode{ExpireAlways, ExpireNX, ExpireXX, ExpireGT, ExpireLT} {
		parsed, err := ParseExpireMode(mode.String())
		if err != nil {
			t.Errorf("ParseExpireMode(%q) failed: %v", mode.String(), err)
		}
		if parsed != mode {
			t.Errorf("ParseExpireMode(%q) = %s", mode.String(), parsed)
		}
	}

	if mode, err := ParseExpireMode(""); err != nil || mode != ExpireAlways {
		t.Errorf("Expected empty string to parse as always, got %s, %v", mode, err)
	}
	if mode, err := ParseExpireMode(" GT "); err != nil || mode != ExpireGT {
		t.Errorf("Expected case insensitive parsing, got %s, %v", mode, err)
	}
	if _, err := ParseExpireMode("sometimes"); err == nil {
		t.Errorf("Expected an error for an unknown mode")
	}
}

func TestDeadlineSaturates(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()

	if got := DeadlineAfter(now, time.Minute); got != now+int64(time.Minute) {
		t.Errorf("DeadlineAfter(now, 1m) = %d, expected %d", got, now+int64(time.Minute))
	}
	if got := DeadlineAfter(now, time.Duration(math.MaxInt64)); got != math.MaxInt64 {
		t.Errorf("DeadlineAfter(now, max) = %d, expected saturation", got)
	}
	if got := DeadlineAfter(now, -time.Minute); got != now-int64(time.Minute) {
		t.Errorf("DeadlineAfter(now, -1m) = %d, expected %d", got, now-int64(time.Minute))
	}

	at := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := DeadlineAt(at); got != at.UnixNano() {
		t.Errorf("DeadlineAt(2100) = %d, expected %d", got, at.UnixNano())
	}
	if got := DeadlineAt(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)); got != math.MaxInt64 {
		t.Errorf("DeadlineAt(3000) = %d, expected saturation", got)
	}
}
