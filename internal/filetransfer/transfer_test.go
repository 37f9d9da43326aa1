package filetransfer

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// memorySource is an in-memory ByteSource for the sender driver.
type memorySource struct {
	*bytes.Reader
}

func (memorySource) Close() error { return nil }

// memorySink is an in-memory ByteSink for the receiver driver.
type memorySink struct {
	buf *bytes.Buffer
}

func (s *memorySink) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s *memorySink) Close() error                { return nil }

func runTransfer(t *testing.T, payload []byte) []byte {
	t.Helper()

	recv, err := NewReceiveBuffer(0)
	if err != nil {
		t.Fatalf("NewReceiveBuffer: %v", err)
	}
	recvAddr := recv.conn.LocalAddr().(*net.UDPAddr)

	sink := &memorySink{buf: &bytes.Buffer{}}
	receiver := &Receiver{
		Port: recvAddr.Port,
		Open: func(string) (ByteSink, error) { return sink, nil },
	}

	resultCh := make(chan Result, 1)
	errCh := make(chan error, 1)
	go func() {
		result, err := runReceiverWithBuffer(receiver, recv)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	sender := &Sender{
		Source:   memorySource{bytes.NewReader(payload)},
		Filename: "test.dat.recv",
		Dest:     recvAddr,
	}

	if _, err := sender.Run(); err != nil {
		t.Fatalf("Sender.Run: %v", err)
	}

	select {
	case err := <-errCh:
		t.Fatalf("Receiver.Run: %v", err)
	case <-resultCh:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for receiver to finish")
	}

	return sink.buf.Bytes()
}

// runReceiverWithBuffer runs the same loop as Receiver.Run but against a
// buffer we already created, so the test can learn its bound port before
// the sender starts.
func runReceiverWithBuffer(r *Receiver, recvBuffer *ReceiveBuffer) (Result, error) {
	done := make(chan struct{})
	go func() { defer close(done); recvBuffer.Run() }()

	init := recvBuffer.NextInOrder()
	filename := deliveredFilename(init.Filename)
	sink, err := r.Open(filename)
	if err != nil {
		recvBuffer.Stop()
		return Result{}, err
	}

	var fileSize int64
	for {
		p := recvBuffer.NextInOrder()
		if p.Last {
			break
		}
		n, err := sink.Write(p.Payload)
		if err != nil {
			recvBuffer.Stop()
			return Result{}, err
		}
		fileSize += int64(n)
	}

	recvBuffer.SendTrailingAcks(trailingAckCount)
	recvBuffer.Stop()
	<-done

	return Result{Filename: filename, FileSize: fileSize}, nil
}

func TestTransferSmallPayload(t *testing.T) {
	got := runTransfer(t, []byte("x"))
	if !bytes.Equal(got, []byte("x")) {
		t.Errorf("received %q, want %q", got, "x")
	}
}

func TestTransferMultiSegmentPayload(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefghij"), 250) // 2500 bytes, spans segments
	got := runTransfer(t, payload)
	if !bytes.Equal(got, payload) {
		t.Errorf("received %d bytes, want %d bytes matching input", len(got), len(payload))
	}
}

func TestTransferEmptyPayload(t *testing.T) {
	got := runTransfer(t, nil)
	if len(got) != 0 {
		t.Errorf("received %d bytes, want 0", len(got))
	}
}
