package serializer

import (
	"testing"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/google/go-cmp/cmp"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Set request
		{
			MsgType: common.MsgTKVSet,
			Key:     "test-key",
			Value:   []byte("test-value"),
		},

		// SetEx request
		{
			MsgType: common.MsgTKVSetEx,
			Key:     "test-key",
			Value:   []byte("test-value"),
			TTL:     60_000,
		},

		// Get response
		{
			MsgType: common.MsgTKVGet,
			Value:   []byte("test-value"),
			Ok:      true,
		},

		// ExpireAt request with a mode
		{
			MsgType: common.MsgTKVExpireAt,
			Key:     "test-key",
			At:      1_700_000_000_000,
			Mode:    3,
		},

		// TTL response without deadline
		{
			MsgType: common.MsgTKVTTL,
			TTL:     -1,
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTKVExpire,
			Key:     "test-key",
			Value:   []byte("test-value"),
			TTL:     1500,
			At:      42,
			Mode:    4,
			Ok:      true,
			Err:     "failed",
			Meta:    []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if diff := cmp.Diff(msg, result); diff != "" {
					t.Errorf("Message %d doesn't match after round trip (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTKVSet,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
		{
			name: "Negative ttl",
			msg: common.Message{
				MsgType: common.MsgTKVExpire,
				Key:     "test",
				TTL:     -5000,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// the binary format keeps the difference between nil and empty slices
			if diff := cmp.Diff(tc.msg, result); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
			if (tc.msg.Value == nil) != (result.Value == nil) {
				t.Errorf("Value nil/non-nil mismatch: expected %v, got %v", tc.msg.Value, result.Value)
			}
			if (tc.msg.Meta == nil) != (result.Meta == nil) {
				t.Errorf("Meta nil/non-nil mismatch: expected %v, got %v", tc.msg.Meta, result.Meta)
			}
		})
	}
}

// TestBinaryDeserializeDoesNotAlias tests that decoded slices do not share memory with the input
func TestBinaryDeserializeDoesNotAlias(t *testing.T) {
	serializer := NewBinarySerializer()
	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTKVSet, Key: "k", Value: []byte("value")})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	var result common.Message
	if err := serializer.Deserialize(data, &result); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}

	for i := range data {
		data[i] = 0
	}
	if string(result.Value) != "value" {
		t.Errorf("Decoded value changed with the input buffer: %q", result.Value)
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{"Empty data", []byte{}, true},
		{"Too short header", []byte{1}, true},
		{"Valid header only", []byte{1, 0}, false},
		{"Invalid length for key", []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, true},
		{"Invalid length for value", []byte{1, hasValue, 0, 0, 0, 10}, true},
		{"Truncated ttl", []byte{1, hasTTL, 0, 0, 0}, true},
		{"Missing mode", []byte{1, hasMode}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, name := range append(Names, " JSON ", "Gob") {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}

		msg := common.Message{MsgType: common.MsgTKVSet, Key: "key", Value: []byte("value")}
		b, err := s.Serialize(msg)
		if err != nil {
			t.Fatalf("%s: Serialize failed: %v", name, err)
		}
		var got common.Message
		if err := s.Deserialize(b, &got); err != nil {
			t.Fatalf("%s: Deserialize failed: %v", name, err)
		}
		if diff := cmp.Diff(msg, got); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", name, diff)
		}
	}

	if _, err := New("xml"); err == nil {
		t.Errorf("Expected an error for an unknown serializer")
	}
}

func TestDeserializeGarbage(t *testing.T) {
	for _, name := range []string{"json", "gob"} {
		s, _ := New(name)
		var msg common.Message
		if err := s.Deserialize([]byte("\x00not a message"), &msg); err == nil {
			t.Errorf("%s: expected an error for garbage input", name)
		}
	}
}
