package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: all store operations
	Value []byte `json:"value,omitempty"` // Used for: Set, SetEx (request), Get (response)
	TTL   int64  `json:"ttl,omitempty"`   // Milliseconds. Used for: SetEx, Expire (request), TTL (response)
	At    int64  `json:"at,omitempty"`    // Unix milliseconds. Used for: ExpireAt
	Mode  uint8  `json:"mode,omitempty"`  // store.ExpireMode. Used for: Expire, ExpireAt

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Get, Delete, Expire, ExpireAt, TTL responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Error responses: the store.RetCode of a store error (one byte)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// errString returns the message of err or "" for nil
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return &Message{MsgType: MsgTKVSet, Err: errString(err)}
}

// NewSetExRequest creates a new SetEx request, ttl is given in milliseconds
func NewSetExRequest(key string, value []byte, ttl int64) *Message {
	return &Message{
		MsgType: MsgTKVSetEx,
		Key:     key,
		Value:   value,
		TTL:     ttl,
	}
}

// NewSetExResponse creates a new SetEx response
func NewSetExResponse(err error) *Message {
	return &Message{MsgType: MsgTKVSetEx, Err: errString(err)}
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
		Value:   value,
		Err:     errString(err),
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(deleted bool, err error) *Message {
	return &Message{MsgType: MsgTKVDelete, Ok: deleted, Err: errString(err)}
}

// NewExpireRequest creates a new Expire request, ttl is given in milliseconds
func NewExpireRequest(key string, ttl int64, mode uint8) *Message {
	return &Message{
		MsgType: MsgTKVExpire,
		Key:     key,
		TTL:     ttl,
		Mode:    mode,
	}
}

// NewExpireResponse creates a new Expire response
func NewExpireResponse(applied bool, err error) *Message {
	return &Message{MsgType: MsgTKVExpire, Ok: applied, Err: errString(err)}
}

// NewExpireAtRequest creates a new ExpireAt request, at is given in unix milliseconds
func NewExpireAtRequest(key string, at int64, mode uint8) *Message {
	return &Message{
		MsgType: MsgTKVExpireAt,
		Key:     key,
		At:      at,
		Mode:    mode,
	}
}

// NewExpireAtResponse creates a new ExpireAt response
func NewExpireAtResponse(applied bool, err error) *Message {
	return &Message{MsgType: MsgTKVExpireAt, Ok: applied, Err: errString(err)}
}

// NewTTLRequest creates a new TTL request
func NewTTLRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVTTL,
		Key:     key,
	}
}

// NewTTLResponse creates a new TTL response, ttl is given in milliseconds (-1 = no deadline)
func NewTTLResponse(ttl int64, ok bool, err error) *Message {
	return &Message{MsgType: MsgTKVTTL, TTL: ttl, Ok: ok, Err: errString(err)}
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	return &Message{MsgType: MsgTCustom, Meta: meta, Err: errString(err)}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:    "success",
	MsgTError:      "error",
	MsgTKVSet:      "set",
	MsgTKVSetEx:    "setEx",
	MsgTKVGet:      "get",
	MsgTKVDelete:   "delete",
	MsgTKVExpire:   "expire",
	MsgTKVExpireAt: "expireAt",
	MsgTKVTTL:      "ttl",
	MsgTCustom:     "custom",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet      // Set a key-value pair
	MsgTKVSetEx    // Set a key-value pair with a ttl
	MsgTKVGet      // Get a value by key
	MsgTKVDelete   // Delete a key-value pair
	MsgTKVExpire   // Set the deadline of a key relative to now
	MsgTKVExpireAt // Set the absolute deadline of a key
	MsgTKVTTL      // Get the remaining time to live of a key

	// Custom operations

	MsgTCustom // Custom operation type
)
