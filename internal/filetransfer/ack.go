package filetransfer

import (
	"encoding/binary"
	"fmt"
)

// AckWireSize is the size of a serialized ACK record: one 32-bit
// cumulative-ACK value repeated three times. This triple-copy form is the
// only one ever emitted; a legacy 8-byte single-value form is never
// written.
const AckWireSize = 12

// EncodeAck serializes a cumulative ACK value as three identical 32-bit
// big-endian copies.
func EncodeAck(value uint32) []byte {
	buf := make([]byte, AckWireSize)
	binary.BigEndian.PutUint32(buf[0:], value)
	binary.BigEndian.PutUint32(buf[4:], value)
	binary.BigEndian.PutUint32(buf[8:], value)
	return buf
}

// DecodeAck parses a 12-byte ACK record, reporting an error if the three
// copies disagree or if the record is short.
func DecodeAck(raw []byte) (uint32, error) {
	if len(raw) < AckWireSize {
		return 0, fmt.Errorf("ack record shorter than %d bytes: got %d", AckWireSize, len(raw))
	}

	a := binary.BigEndian.Uint32(raw[0:])
	b := binary.BigEndian.Uint32(raw[4:])
	c := binary.BigEndian.Uint32(raw[8:])

	if a != b || a != c {
		return 0, fmt.Errorf("ack copies disagree: %d/%d/%d", a, b, c)
	}

	return a, nil
}
