package filetransfer

import (
	"net"
	"sync"
	"time"
)

// AckReceiver listens on a freshly bound UDP socket for cumulative ACKs
// from the receiver's AckSender, tracks the highest ACK seen so far,
// forwards it to a SendBuffer, and triggers fast retransmit on a duplicate
// ACK. Grounded on the Java AckReceiver (original_source), adapted to the
// 12-byte triple-copy wire form and a sync.Cond in place of Java's
// Lock/Condition pair.
type AckReceiver struct {
	conn *net.UDPConn

	mu              sync.Mutex
	cond            *sync.Cond
	lastAckReceived int64 // -1 until the first ACK arrives
	previousAck     int64
	stopped         bool

	sendBuffer *SendBuffer
}

// NewAckReceiver binds a new UDP socket on an OS-assigned port.
func NewAckReceiver() (*AckReceiver, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}

	r := &AckReceiver{
		conn:            conn,
		lastAckReceived: -1,
		previousAck:     -1,
	}
	r.cond = sync.NewCond(&r.mu)
	return r, nil
}

// SetSendBuffer wires the send buffer this receiver notifies of incoming
// ACKs. Must be called before Run.
func (r *AckReceiver) SetSendBuffer(sb *SendBuffer) {
	r.sendBuffer = sb
}

// Port returns the OS-assigned local port, to be embedded in the init
// packet so the receiver knows where to send ACKs.
func (r *AckReceiver) Port() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

// Run is the receive loop: read a 12-byte ACK record, validate the
// triple-copy integrity check, update last-ack state, and drive the send
// buffer (cumulative removal plus fast retransmit on a repeated ACK).
func (r *AckReceiver) Run() {
	buf := make([]byte, AckWireSize+64)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if r.isStopped() {
				return
			}
			continue
		}

		value, err := DecodeAck(buf[:n])
		if err != nil {
			protoLog.Printf("[recv corrupt ack]")
			continue
		}

		protoLog.Printf("[recv ack] %d", value)
		r.updateLastAck(value)

		if r.sendBuffer != nil {
			r.sendBuffer.NoteCumulativeAck(value)
		}

		r.mu.Lock()
		duplicate := int64(value) == r.previousAck
		r.previousAck = int64(value)
		r.mu.Unlock()

		if duplicate && r.sendBuffer != nil {
			r.sendBuffer.ForceResend(value + 1)
		}
	}
}

func (r *AckReceiver) updateLastAck(value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int64(value) > r.lastAckReceived {
		r.lastAckReceived = int64(value)
	}
	r.cond.Broadcast()
}

// WaitFor blocks until lastAckReceived >= expected or timeout elapses,
// tolerating spurious wakeups by re-checking the predicate each time it
// wakes. A timer broadcasts the condition once the deadline passes so the
// waiting goroutine is guaranteed to wake up and re-check.
func (r *AckReceiver) WaitFor(expected uint32, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	timer := time.AfterFunc(timeout, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer timer.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.lastAckReceived < int64(expected) {
		if time.Now().After(deadline) {
			return false
		}
		r.cond.Wait()
	}
	return true
}

func (r *AckReceiver) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Stop closes the socket to unblock the receive loop.
func (r *AckReceiver) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.conn.Close()
	r.cond.Broadcast()
}
