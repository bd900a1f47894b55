package serializer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/skv/rpc/common"
)

// IRPCSerializer converts Messages to and from their wire form.
// Implementations are stateless and safe for concurrent use.
type IRPCSerializer interface {
	// Serialize returns the wire form of msg
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg
	Deserialize(b []byte, msg *common.Message) error
}

// Names lists the serializers known to New
var Names = []string{"binary", "json", "gob"}

// New returns the serializer registered under name (case-insensitive)
func New(name string) (IRPCSerializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary":
		return NewBinarySerializer(), nil
	case "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %q (expected one of: %s)", name, strings.Join(Names, ", "))
	}
}

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

// NewJSONSerializer creates a serializer writing messages as JSON objects.
// Value and Meta are base64 encoded by encoding/json.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializer{}
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonSerializer) Deserialize(b []byte, msg *common.Message) error {
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("json message: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// GOB
// --------------------------------------------------------------------------

// NewGOBSerializer creates a serializer using Go's gob format. Every message carries
// its own type description, so it is the largest of the formats.
func NewGOBSerializer() IRPCSerializer {
	return gobSerializer{}
}

type gobSerializer struct{}

func (gobSerializer) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobSerializer) Deserialize(b []byte, msg *common.Message) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(msg); err != nil {
		return fmt.Errorf("gob message: %w", err)
	}
	return nil
}
