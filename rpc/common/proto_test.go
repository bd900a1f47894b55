package common

import (
	"encoding/json"
	"testing"
)

func TestMessageTypeJSON(t *testing.T) {
	for msgType, name := range messageTypeNames {
		data, err := json.Marshal(msgType)
		if err != nil {
			t.Fatalf("Marshal(%s) failed: %v", name, err)
		}
		if string(data) != `"`+name+`"` {
			t.Errorf("Expected %q, got %s", name, data)
		}

		var decoded MessageType
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if decoded != msgType {
			t.Errorf("Expected %s, got %s", msgType, decoded)
		}
	}

	var decoded MessageType
	if err := json.Unmarshal([]byte(`"acquire"`), &decoded); err == nil {
		t.Errorf("Expected an error for an unknown message type")
	}
}

func TestResponseErrors(t *testing.T) {
	if msg := NewSetResponse(nil); msg.Err != "" {
		t.Errorf("Expected empty error, got %q", msg.Err)
	}
	if msg := NewTTLResponse(-1, true, errTest("boom")); msg.Err != "boom" || msg.TTL != -1 || !msg.Ok {
		t.Errorf("Unexpected TTL response: %+v", msg)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "INFO", ""} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
