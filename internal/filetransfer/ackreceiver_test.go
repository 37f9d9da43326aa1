package filetransfer

import (
	"testing"
	"time"
)

func TestAckReceiverWaitForReturnsImmediatelyWhenAlreadySatisfied(t *testing.T) {
	r, err := NewAckReceiver()
	if err != nil {
		t.Fatalf("NewAckReceiver: %v", err)
	}
	defer r.Stop()

	r.updateLastAck(5)

	if !r.WaitFor(3, 50*time.Millisecond) {
		t.Errorf("WaitFor(3) = false, want true (already satisfied by ack 5)")
	}
}

func TestAckReceiverWaitForTimesOut(t *testing.T) {
	r, err := NewAckReceiver()
	if err != nil {
		t.Fatalf("NewAckReceiver: %v", err)
	}
	defer r.Stop()

	start := time.Now()
	ok := r.WaitFor(1, 30*time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Errorf("WaitFor = true, want false (no ack ever arrives)")
	}
	if elapsed < 30*time.Millisecond {
		t.Errorf("WaitFor returned after %v, want at least the timeout", elapsed)
	}
}

func TestAckReceiverWaitForWakesOnUpdate(t *testing.T) {
	r, err := NewAckReceiver()
	if err != nil {
		t.Fatalf("NewAckReceiver: %v", err)
	}
	defer r.Stop()

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.updateLastAck(7)
	}()

	if !r.WaitFor(7, time.Second) {
		t.Errorf("WaitFor(7) = false, want true after concurrent update")
	}
}
