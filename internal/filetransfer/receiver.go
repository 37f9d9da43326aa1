package filetransfer

import (
	"fmt"
)

// trailingAckCount is how many duplicate ACKs the receiver fires after
// delivering the terminal packet, to cover the case where the sender's
// last WaitFor never observes an ACK because it was lost in flight.
const trailingAckCount = 10

// fileSuffix is appended to the filename carried by the init packet to form
// the delivered filename. The sendfile CLI names the file "<name>.recv", so
// the file lands on disk as "<name>.recv.xml".
const fileSuffix = ".xml"

// SinkOpener opens a ByteSink for the delivered filename. The receiver
// driver doesn't know the destination directory; the CLI layer supplies
// this so tests can intercept it with an in-memory sink.
type SinkOpener func(filename string) (ByteSink, error)

// Receiver drives a single inbound transfer on a bound port: read the init
// packet, open the destination file, drain the reorder buffer in sequence
// order until the terminal packet, and close out.
type Receiver struct {
	Port   int
	Open   SinkOpener
	Status *TransferStatus

	recvBuffer *ReceiveBuffer
}

// Result is returned by Run on success.
type Result struct {
	Filename string
	FileSize int64
}

// Run executes the full receiver flow: read the init packet, open the
// destination, drain data packets to it in order, and close out on the
// terminal packet.
func (r *Receiver) Run() (Result, error) {
	recvBuffer, err := NewReceiveBuffer(r.Port)
	if err != nil {
		return Result{}, fmt.Errorf("create receive buffer: %w", err)
	}
	r.recvBuffer = recvBuffer

	done := make(chan struct{})
	go func() { defer close(done); recvBuffer.Run() }()

	init := recvBuffer.NextInOrder()
	if !init.First {
		recvBuffer.Stop()
		return Result{}, fmt.Errorf("first packet was not an init packet")
	}

	filename := deliveredFilename(init.Filename)
	sink, err := r.Open(filename)
	if err != nil {
		recvBuffer.Stop()
		return Result{}, fmt.Errorf("open destination %q: %w", filename, err)
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
			sink.Close()
			return Result{}, fmt.Errorf("write destination: %w", err)
		}
		fileSize += int64(n)
		if r.Status != nil {
			r.Status.addBytes(n)
		}
	}

	recvBuffer.SendTrailingAcks(trailingAckCount)
	recvBuffer.Stop()
	<-done

	if err := sink.Close(); err != nil {
		protoLog.Printf("[error] file writer failed to close: %v", err)
	}

	protoLog.Printf("[completed]")

	return Result{Filename: filename, FileSize: fileSize}, nil
}

// deliveredFilename appends fileSuffix to the name the sender embedded in
// the init packet, keeping any ".recv" suffix the sender chose.
func deliveredFilename(senderName string) string {
	return senderName + fileSuffix
}
