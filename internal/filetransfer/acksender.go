package filetransfer

import (
	"fmt"
	"net"
	"sync"
)

// AckSender transmits the monotonically-non-decreasing cumulative ACK to
// the peer's announced port. Grounded on the Java AckSender
// (original_source), upgraded from its legacy 8-byte single-value wire
// form to the 12-byte triple-copy form.
type AckSender struct {
	conn *net.UDPConn
	dest *net.UDPAddr

	mu         sync.Mutex
	latestSent int64 // -1 until the first ACK is sent
}

// NewAckSender opens a fresh UDP socket addressed to (ip, port).
func NewAckSender(ip net.IP, port int) (*AckSender, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("ack sender: open socket: %w", err)
	}

	return &AckSender{
		conn:       conn,
		dest:       &net.UDPAddr{IP: ip, Port: port},
		latestSent: -1,
	}, nil
}

// Send transmits max(n, latestSent) so that emitted ACK values are never
// observed to go backwards even if the receive loop computes n
// non-monotonically during reordering.
func (s *AckSender) Send(n uint32) {
	s.mu.Lock()
	value := n
	if s.latestSent >= 0 && uint32(s.latestSent) > value {
		value = uint32(s.latestSent)
	}
	s.latestSent = int64(value)
	s.mu.Unlock()

	if _, err := s.conn.WriteToUDP(EncodeAck(value), s.dest); err != nil {
		return
	}
	protoLog.Printf("[send ack] %d", value)
}

// Close releases the underlying socket.
func (s *AckSender) Close() {
	s.conn.Close()
}
