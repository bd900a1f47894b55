package util

import (
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d characters: %q", Wrap, line)
		}
	}
}

func TestParseDeadline(t *testing.T) {
	at, err := ParseDeadline("1700000000")
	if err != nil || !at.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unix seconds: got %v %v", at, err)
	}
	at, err = ParseDeadline("2024-01-01T12:00:00Z")
	if err != nil || !at.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("RFC 3339: got %v %v", at, err)
	}
	if _, err := ParseDeadline("tomorrow"); err == nil {
		t.Error("Expected error for invalid deadline")
	}
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		ttl   time.Duration
		found bool
		want  string
	}{
		{0, false, "-"},
		{store.NoExpiry, true, "none"},
		{1500 * time.Millisecond, true, "1.5s"},
	}
	for _, tc := range tests {
		if got := FormatTTL(tc.ttl, tc.found); got != tc.want {
			t.Errorf("FormatTTL(%v, %v) = %q, want %q", tc.ttl, tc.found, got, tc.want)
		}
	}
}
