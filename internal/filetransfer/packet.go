package filetransfer

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the number of bytes at the front of every framed datagram
// before the payload begins.
const HeaderSize = 9

// SegmentSize is the number of file-data bytes carried by a single non-init,
// non-last data packet.
const SegmentSize = 1000

const (
	flagFirst byte = 0x01
	flagLast  byte = 0x02
)

const (
	idxSequenceNumber = 0
	idxChecksum       = 4
	idxPacketLength   = 6
	idxFlags          = 8
)

// Packet is the logical record carried by one framed datagram: a sequence
// number, the FIRST/LAST flags, and a payload. For the init packet (FIRST),
// the payload is the 4-byte ACK port followed by the destination filename;
// for every other packet the payload is raw file bytes (empty for LAST).
type Packet struct {
	SequenceNumber uint32
	First          bool
	Last           bool
	Payload        []byte

	// AckPort and Filename are only meaningful when First is true; they are
	// parsed out of Payload by Decode and assembled into Payload by Encode.
	AckPort  uint16
	Filename string
}

// Encode serializes p into a framed datagram: a 9-byte header followed by
// the payload, with the Internet checksum computed over the whole frame
// with the checksum field zeroed.
func (p *Packet) Encode() []byte {
	payload := p.Payload
	if p.First {
		payload = make([]byte, 4+len(p.Filename))
		binary.BigEndian.PutUint32(payload[:4], uint32(p.AckPort))
		copy(payload[4:], p.Filename)
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[idxSequenceNumber:], p.SequenceNumber)
	binary.BigEndian.PutUint16(buf[idxChecksum:], 0)
	binary.BigEndian.PutUint16(buf[idxPacketLength:], uint16(len(buf)))
	buf[idxFlags] = p.flags()
	copy(buf[HeaderSize:], payload)

	checksum := internetChecksum(buf)
	binary.BigEndian.PutUint16(buf[idxChecksum:], checksum)

	return buf
}

func (p *Packet) flags() byte {
	var f byte
	if p.First {
		f |= flagFirst
	}
	if p.Last {
		f |= flagLast
	}
	return f
}

// Decode parses a framed datagram. It reports a non-nil error if the frame
// is too short, the checksum doesn't verify, or the stated packet length
// exceeds the bytes received. For a FIRST packet, it further splits the
// payload into the ACK port and filename, reporting an error if fewer than
// 4 payload bytes are present.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("frame shorter than header: %d bytes", len(raw))
	}

	if internetChecksum(raw) != 0 {
		return nil, fmt.Errorf("checksum mismatch")
	}

	packetLength := int(binary.BigEndian.Uint16(raw[idxPacketLength:]))
	if packetLength > len(raw) {
		return nil, fmt.Errorf("stated length %d exceeds received %d bytes", packetLength, len(raw))
	}

	flags := raw[idxFlags]
	p := &Packet{
		SequenceNumber: binary.BigEndian.Uint32(raw[idxSequenceNumber:]),
		First:          flags&flagFirst != 0,
		Last:           flags&flagLast != 0,
	}

	payload := raw[HeaderSize:packetLength]

	if p.First {
		if len(payload) < 4 {
			return nil, fmt.Errorf("init packet payload shorter than ack-port field: %d bytes", len(payload))
		}
		p.AckPort = uint16(binary.BigEndian.Uint32(payload[:4]))
		p.Filename = string(payload[4:])
	} else {
		p.Payload = append([]byte(nil), payload...)
	}

	return p, nil
}

// internetChecksum computes the RFC 1071 16-bit one's-complement checksum
// with end-around carry over buf, treating it as a sequence of big-endian
// 16-bit words. An odd trailing byte is treated as the high byte of a final
// word whose low byte is zero. The result is bitwise inverted, as required
// so that a correctly-checksummed frame recomputes to zero.
func internetChecksum(buf []byte) uint16 {
	var sum uint32

	n := len(buf)
	i := 0
	for n > 1 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
		i += 2
		n -= 2
	}
	if n > 0 {
		sum += uint32(buf[i]) << 8
	}

	for sum>>16 > 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}

	return ^uint16(sum)
}
