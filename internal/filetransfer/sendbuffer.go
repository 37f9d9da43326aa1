package filetransfer

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	minInflightWindow  = 2
	maxInflightWindow  = 100
	inflightWindowStep = 2

	// ackWaitTimeout is how long the send loop waits for the ACK of the
	// selected (lowest-sequence) in-flight entry once every buffered entry
	// has already been transmitted once.
	ackWaitTimeout = 100 * time.Millisecond
)

// sendEntry is one buffered, not-yet-fully-acknowledged packet. The
// serialized form is cached so a retransmit never re-encodes.
type sendEntry struct {
	sequenceNumber uint32
	wire           []byte
	sendCount      int
	isInit         bool
	isLast         bool
}

// AckWaiter lets the send loop block on a particular sequence number being
// acknowledged. AckReceiver implements this.
type AckWaiter interface {
	WaitFor(expected uint32, timeout time.Duration) bool
}

// SendBuffer owns the sliding window of in-flight packets: sequence-number
// assignment, the adaptive inflight window, retransmit selection, and the
// transmit loop. It mirrors the Java FileSendBuffer (original_source), but
// the selection/retransmit-wait logic here is new: the original source
// always busy-transmits whatever has the smallest send count, with no
// implicit RTT wait.
type SendBuffer struct {
	conn *net.UDPConn
	dest *net.UDPAddr
	acks AckWaiter

	mu             sync.Mutex
	entries        []*sendEntry
	nextSeq        uint32
	inflightWindow int
	inflightInUse  int
	totalBytesSent int64
	stopped        bool

	limiter *spinLimiter
}

// NewSendBuffer opens a fresh UDP socket and returns a buffer that sends to
// dest, consulting acks for the implicit-RTT wait branch of the selection
// policy.
func NewSendBuffer(dest *net.UDPAddr, acks AckWaiter) (*SendBuffer, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("send buffer: open socket: %w", err)
	}

	return &SendBuffer{
		conn:           conn,
		dest:           dest,
		acks:           acks,
		inflightWindow: minInflightWindow,
		limiter:        newSpinLimiter(),
	}, nil
}

// Enqueue blocks until an inflight permit is available, then assigns the
// next sequence number to p, serializes it, and appends it to the buffer.
// No duplicate sequence numbers are ever issued.
func (b *SendBuffer) Enqueue(p *Packet) uint32 {
	for {
		b.mu.Lock()
		if b.inflightInUse < b.inflightWindow {
			break
		}
		b.mu.Unlock()
		b.limiter.wait()
	}
	defer b.mu.Unlock()

	seq := b.nextSeq
	b.nextSeq++
	p.SequenceNumber = seq

	entry := &sendEntry{
		sequenceNumber: seq,
		wire:           p.Encode(),
		isInit:         p.First,
		isLast:         p.Last,
	}

	b.entries = append(b.entries, entry)
	b.inflightInUse++

	return seq
}

// NoteCumulativeAck removes every buffered entry with sequence number <= n
// and frees one inflight permit per removed entry. Idempotent: a repeated
// call with the same (or a smaller) n removes nothing further.
func (b *SendBuffer) NoteCumulativeAck(n uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.entries[:0]
	removed := 0
	for _, e := range b.entries {
		if e.sequenceNumber <= n {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept
	b.inflightInUse -= removed
	if b.inflightInUse < 0 {
		b.inflightInUse = 0
	}
}

// ForceResend resets sendCount to 0 for every buffered entry whose sequence
// number is n or n+1, the fast-retransmit trigger fired by ackReceiver on a
// duplicate ACK.
func (b *SendBuffer) ForceResend(n uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.entries {
		if e.sequenceNumber == n || e.sequenceNumber == n+1 {
			e.sendCount = 0
		}
	}
}

// Run is the send loop: repeatedly select and transmit the next packet per
// the priority policy in selectLocked, growing the inflight window on an
// uncontested ACK wait.
func (b *SendBuffer) Run() {
	for {
		b.mu.Lock()
		if b.stopped {
			b.mu.Unlock()
			return
		}
		entry := b.selectLocked()
		b.mu.Unlock()

		if entry == nil {
			b.limiter.wait()
			continue
		}

		if entry.sendCount > 0 {
			// Every buffered entry has already been sent at least once:
			// the buffer is exhausted of fresh packets. Wait up to
			// ackWaitTimeout for this entry's ACK before retransmitting.
			if b.acks.WaitFor(entry.sequenceNumber, ackWaitTimeout) {
				b.growWindow()
				continue
			}
			// Timeout: fall through and retransmit.
		}

		if _, err := b.conn.WriteToUDP(entry.wire, b.dest); err != nil {
			// Transient I/O error: retry via re-selection.
			continue
		}

		b.mu.Lock()
		b.totalBytesSent += int64(len(entry.wire))
		entry.sendCount = 1
		b.mu.Unlock()

		logSendData(entry)
	}
}

func logSendData(e *sendEntry) {
	var where string
	switch {
	case e.isInit:
		where = "start"
	case e.isLast:
		where = "end"
	default:
		where = fmt.Sprintf("%d", (e.sequenceNumber-1)*SegmentSize)
	}
	protoLog.Printf("[send data] %s (%d)", where, len(e.wire)-HeaderSize)
}

// selectLocked implements the selection policy: smallest send count, then
// smallest sequence number, then insertion order. Caller holds b.mu.
func (b *SendBuffer) selectLocked() *sendEntry {
	var best *sendEntry
	for _, e := range b.entries {
		if best == nil {
			best = e
			continue
		}
		if e.sendCount < best.sendCount {
			best = e
			continue
		}
		if e.sendCount == best.sendCount && e.sequenceNumber < best.sequenceNumber {
			best = e
		}
	}
	return best
}

func (b *SendBuffer) growWindow() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflightWindow += inflightWindowStep
	if b.inflightWindow > maxInflightWindow {
		b.inflightWindow = maxInflightWindow
	}
}

// TotalBytesSent returns the link-level byte count transmitted so far.
func (b *SendBuffer) TotalBytesSent() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalBytesSent
}

// Stop signals the send loop to terminate and closes the underlying socket.
func (b *SendBuffer) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.conn.Close()
}
