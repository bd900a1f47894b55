package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		shardID uint64
		reqID   uint64
		data    []byte
		buf     []byte
	}{
		{"Empty payload", 1, 1, []byte{}, nil},
		{"Small payload", 7, 42, []byte("hello"), nil},
		{"Pooled buffer", 3, 9, []byte("pooled"), make([]byte, 1024)},
		{"Buffer too small", 2, 5, bytes.Repeat([]byte("x"), 4096), make([]byte, 32)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- writeFrame(client, tc.shardID, tc.reqID, tc.data)
			}()

			shardID, reqID, data, err := readFrame(server, tc.buf)
			if err != nil {
				t.Fatalf("readFrame failed: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame failed: %v", err)
			}

			if shardID != tc.shardID || reqID != tc.reqID {
				t.Errorf("Expected shard %d request %d, got shard %d request %d", tc.shardID, tc.reqID, shardID, reqID)
			}
			if !bytes.Equal(data, tc.data) {
				t.Errorf("Expected payload of %d bytes, got %d bytes", len(tc.data), len(data))
			}
		})
	}
}

func TestFrameSequence(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payloads := [][]byte{nil, []byte("first"), {}, []byte("last")}

	errCh := make(chan error, 1)
	go func() {
		for i, p := range payloads {
			if err := writeFrame(client, 1, uint64(i), p); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	for i, p := range payloads {
		_, reqID, data, err := readFrame(server, nil)
		if err != nil {
			t.Fatalf("readFrame %d failed: %v", i, err)
		}
		if reqID != uint64(i) || !bytes.Equal(data, p) {
			t.Errorf("Frame %d: got request %d with %q", i, reqID, data)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}
}

func TestFrameTooLarge(t *testing.T) {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], 1)
	binary.BigEndian.PutUint64(header[8:16], 2)
	binary.BigEndian.PutUint32(header[16:20], maxFrameSize+1)

	if _, _, _, err := readFrame(bytes.NewReader(header), nil); err == nil {
		t.Errorf("Expected an error for an oversized frame")
	}
}
