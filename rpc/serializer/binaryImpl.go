package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/skv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: MsgType (1 byte) | flags (1 byte) | present fields in flag order.
// Strings and byte slices are prefixed with a 4 byte length, TTL and At are
// 8 byte big endian integers, Mode and Ok take one byte.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	hasTTL   byte = 1 << 2
	hasAt    byte = 1 << 3
	hasMode  byte = 1 << 4
	hasOk    byte = 1 << 5
	hasErr   byte = 1 << 6
	hasMeta  byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := binaryWriter{buf: make([]byte, 2, b.sizeBytes(msg))}
	w.buf[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		w.bytes([]byte(msg.Key))
	}
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.TTL != 0 {
		flags |= hasTTL
		w.int64(msg.TTL)
	}
	if msg.At != 0 {
		flags |= hasAt
		w.int64(msg.At)
	}
	if msg.Mode != 0 {
		flags |= hasMode
		w.buf = append(w.buf, msg.Mode)
	}
	if msg.Ok {
		flags |= hasOk
		w.buf = append(w.buf, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		w.bytes([]byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.bytes(msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	w.buf[1] = flags
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := binaryReader{data: data, pos: 2}

	if flags&hasKey != 0 {
		key, err := r.bytes("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}
	if flags&hasValue != 0 {
		value, err := r.bytes("value")
		if err != nil {
			return err
		}
		// copy so the message does not alias the (possibly pooled) input buffer
		msg.Value = append(make([]byte, 0, len(value)), value...)
	}
	if flags&hasTTL != 0 {
		ttl, err := r.int64("ttl")
		if err != nil {
			return err
		}
		msg.TTL = ttl
	}
	if flags&hasAt != 0 {
		at, err := r.int64("at")
		if err != nil {
			return err
		}
		msg.At = at
	}
	if flags&hasMode != 0 {
		mode, err := r.byte("mode")
		if err != nil {
			return err
		}
		msg.Mode = mode
	}
	if flags&hasOk != 0 {
		ok, err := r.byte("ok")
		if err != nil {
			return err
		}
		msg.Ok = ok != 0
	}
	if flags&hasErr != 0 {
		errBytes, err := r.bytes("err")
		if err != nil {
			return err
		}
		msg.Err = string(errBytes)
	}
	if flags&hasMeta != 0 {
		meta, err := r.bytes("meta")
		if err != nil {
			return err
		}
		msg.Meta = append(make([]byte, 0, len(meta)), meta...)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.TTL != 0 {
		size += 8
	}
	if msg.At != 0 {
		size += 8
	}
	if msg.Mode != 0 {
		size++
	}
	if msg.Ok {
		size++
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) bytes(p []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(p)))
	w.buf = append(w.buf, p...)
}

func (w *binaryWriter) int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) need(n int, field string) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("data too short for %s", field)
	}
	return nil
}

func (r *binaryReader) bytes(field string) ([]byte, error) {
	if err := r.need(4, field+" length"); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	if err := r.need(n, field+" data"); err != nil {
		return nil, err
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

func (r *binaryReader) int64(field string) (int64, error) {
	if err := r.need(8, field); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

func (r *binaryReader) byte(field string) (byte, error) {
	if err := r.need(1, field); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}
