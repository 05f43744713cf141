package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	// frameHeaderSize is shardID (8) + requestID (8) + payload length (4)
	frameHeaderSize = 20
	// maxFrameSize bounds the payload a peer may announce
	maxFrameSize = 64 << 20
)

// frameHeader is the fixed size prefix of every frame
type frameHeader struct {
	shardID   uint64
	requestID uint64
	length    uint32
}

func (h frameHeader) encode(buf []byte) {
	binary.BigEndian.PutUint64(buf[0:8], h.shardID)
	binary.BigEndian.PutUint64(buf[8:16], h.requestID)
	binary.BigEndian.PutUint32(buf[16:20], h.length)
}

func decodeFrameHeader(buf []byte) frameHeader {
	return frameHeader{
		shardID:   binary.BigEndian.Uint64(buf[0:8]),
		requestID: binary.BigEndian.Uint64(buf[8:16]),
		length:    binary.BigEndian.Uint32(buf[16:20]),
	}
}

// writeFrame writes header and payload with a single vectored write
func writeFrame(w io.Writer, shardID, requestID uint64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", len(data), maxFrameSize)
	}
	header := make([]byte, frameHeaderSize)
	frameHeader{shardID: shardID, requestID: requestID, length: uint32(len(data))}.encode(header)

	b := net.Buffers{header, data}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads one frame. The payload is read into buf if it is large
// enough, otherwise a new slice is allocated.
func readFrame(r io.Reader, buf []byte) (frameHeader, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frameHeader{}, nil, err
	}

	h := decodeFrameHeader(header[:])
	if h.length > maxFrameSize {
		return h, nil, fmt.Errorf("peer announced a frame of %d bytes, the limit is %d bytes", h.length, maxFrameSize)
	}

	if cap(buf) < int(h.length) {
		buf = make([]byte, h.length)
	}
	payload := buf[:h.length]
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, err
	}
	return h, payload, nil
}
