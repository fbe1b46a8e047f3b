package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
)

// TestFrameRoundTrip tests that a frame written to a connection is read back
// with the same header fields and payload
func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := []byte("signal-payload")

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- writeFrame(client, 3, 42, payload)
	}()

	shardID, requestID, data, err := readFrame(server, nil)
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if err := <-writeErr; err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}

	if shardID != 3 {
		t.Errorf("shardID mismatch: expected 3, got %d", shardID)
	}
	if requestID != 42 {
		t.Errorf("requestID mismatch: expected 42, got %d", requestID)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload mismatch: expected %q, got %q", payload, data)
	}
}

// TestReadFrameRejectsOversizedLength tests that a frame header claiming a
// payload larger than the maximum frame size is rejected without allocating
// a buffer for it
func TestReadFrameRejectsOversizedLength(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		header := make([]byte, 20)
		binary.BigEndian.PutUint64(header[:8], 1)
		binary.BigEndian.PutUint64(header[8:16], 7)
		binary.BigEndian.PutUint32(header[16:20], maxFrameSize+1)
		client.Write(header)
	}()

	if _, _, _, err := readFrame(server, nil); err == nil {
		t.Fatal("expected error for frame length above maximum")
	}
}
