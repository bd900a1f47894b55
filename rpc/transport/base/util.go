package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	headerSize = 20

	// maxFrameSize limits the payload of a single frame
	maxFrameSize = 64 * 1024 * 1024
)

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: shardId (uint64, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn io.Writer, shardID uint64, requestID uint64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", len(data), maxFrameSize)
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	b := net.Buffers{header}
	if len(data) > 0 {
		b = append(b, data)
	}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data
func readFrame(conn io.Reader, buf []byte) (uint64, uint64, []byte, error) {
	if len(buf) < headerSize {
		buf = make([]byte, headerSize)
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:headerSize]); err != nil {
		return 0, 0, nil, err
	}

	// Parse header
	shardID := binary.BigEndian.Uint64(buf[:8])
	requestID := binary.BigEndian.Uint64(buf[8:16])
	contentLength := binary.BigEndian.Uint32(buf[16:20])

	if contentLength > maxFrameSize {
		return shardID, requestID, nil, fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", contentLength, maxFrameSize)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return shardID, requestID, []byte{}, nil
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return shardID, requestID, nil, err
	}

	return shardID, requestID, buf[:contentLength], nil
}
