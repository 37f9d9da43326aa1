package filetransfer

import "testing"

func newTestReceiveBuffer(t *testing.T) *ReceiveBuffer {
	t.Helper()
	b, err := NewReceiveBuffer(0)
	if err != nil {
		t.Fatalf("NewReceiveBuffer: %v", err)
	}
	t.Cleanup(b.Stop)
	return b
}

func TestUpdateBufferAcceptsInOrder(t *testing.T) {
	b := newTestReceiveBuffer(t)

	b.updateBuffer(&Packet{First: true, Filename: "f.recv"})
	if got := b.bufferedSeqsLocked(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("buffered = %v, want [0]", got)
	}
}

func TestUpdateBufferBuffersOutOfOrderAndAdvancesOnFill(t *testing.T) {
	b := newTestReceiveBuffer(t)

	b.updateBuffer(&Packet{First: true, Filename: "f.recv"}) // seq 0
	b.nextSequenceToDeliver = 1

	b.updateBuffer(&Packet{SequenceNumber: 2, Payload: []byte("c")})
	b.updateBuffer(&Packet{SequenceNumber: 1, Payload: []byte("b")})

	seqs := b.bufferedSeqsLocked()
	if len(seqs) != 3 {
		t.Fatalf("buffered = %v, want 3 entries", seqs)
	}

	b.mu.Lock()
	last := b.lastConsecutiveSeqNo
	b.mu.Unlock()
	if last != 2 {
		t.Errorf("lastConsecutiveSeqNo = %d, want 2", last)
	}
}

func TestUpdateBufferRejectsOutOfWindow(t *testing.T) {
	b := newTestReceiveBuffer(t)
	b.nextSequenceToDeliver = 10

	b.updateBuffer(&Packet{SequenceNumber: 5, Payload: []byte("stale")})

	if got := b.bufferedSeqsLocked(); len(got) != 0 {
		t.Errorf("buffered = %v, want none (below window)", got)
	}

	b.updateBuffer(&Packet{SequenceNumber: 10 + BufferSize, Payload: []byte("far")})
	if got := b.bufferedSeqsLocked(); len(got) != 0 {
		t.Errorf("buffered = %v, want none (beyond window)", got)
	}
}

func TestUpdateBufferRejectsDuplicate(t *testing.T) {
	b := newTestReceiveBuffer(t)

	b.updateBuffer(&Packet{SequenceNumber: 0, First: true, Filename: "f.recv"})
	b.updateBuffer(&Packet{SequenceNumber: 0, First: true, Filename: "f.recv"})

	if got := b.bufferedSeqsLocked(); len(got) != 1 {
		t.Errorf("buffered = %v, want exactly 1 entry after duplicate", got)
	}
}

func TestNextInOrderDeliversInSequence(t *testing.T) {
	b := newTestReceiveBuffer(t)

	b.updateBuffer(&Packet{SequenceNumber: 0, First: true, Filename: "f.recv"})
	b.updateBuffer(&Packet{SequenceNumber: 1, Payload: []byte("data")})

	p0 := b.NextInOrder()
	if p0.SequenceNumber != 0 {
		t.Fatalf("first delivered seq = %d, want 0", p0.SequenceNumber)
	}
	p1 := b.NextInOrder()
	if p1.SequenceNumber != 1 {
		t.Fatalf("second delivered seq = %d, want 1", p1.SequenceNumber)
	}
}
