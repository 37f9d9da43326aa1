package filetransfer

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// finalAckTimeout is how long the sender driver waits for the ACK of
	// the terminal packet before tearing down regardless.
	finalAckTimeout = 30 * time.Second

	// threadJoinTimeout bounds how long the sender driver waits for its
	// background loops to exit during teardown.
	threadJoinTimeout = 1 * time.Second
)

// Stats is the statistics block the sender CLI prints on successful
// completion.
type Stats struct {
	RunningTime    time.Duration
	FileSize       int64
	TotalBytesSent int64
}

// Efficiency returns (file_size / total_bytes_sent) * 100, or 0 if nothing
// was sent.
func (s Stats) Efficiency() float64 {
	if s.TotalBytesSent == 0 {
		return 0
	}
	return (float64(s.FileSize) / float64(s.TotalBytesSent)) * 100
}

// Sender drives a single unidirectional transfer of Source to Dest, naming
// the remote file Filename. It owns an AckReceiver and a SendBuffer for the
// lifetime of the transfer.
type Sender struct {
	Source   ByteSource
	Filename string
	Dest     *net.UDPAddr

	// Status, if non-nil, is updated as the transfer progresses so a
	// status HTTP endpoint (see status.go) can report live progress.
	Status *TransferStatus

	ackReceiver *AckReceiver
	sendBuffer  *SendBuffer
}

// Run executes the full sender flow: emit the init packet, stream
// SegmentSize chunks, emit the terminal packet, wait for its ACK, tear
// down, and return the final statistics.
func (s *Sender) Run() (Stats, error) {
	start := time.Now()

	ackReceiver, err := NewAckReceiver()
	if err != nil {
		return Stats{}, fmt.Errorf("create ack receiver: %w", err)
	}
	s.ackReceiver = ackReceiver

	sendBuffer, err := NewSendBuffer(s.Dest, ackReceiver)
	if err != nil {
		ackReceiver.Stop()
		return Stats{}, fmt.Errorf("create send buffer: %w", err)
	}
	s.sendBuffer = sendBuffer
	ackReceiver.SetSendBuffer(sendBuffer)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); ackReceiver.Run() }()
	go func() { defer wg.Done(); sendBuffer.Run() }()

	initPacket := &Packet{
		First:    true,
		AckPort:  uint16(ackReceiver.Port()),
		Filename: s.Filename,
	}
	sendBuffer.Enqueue(initPacket)

	var lastSeq uint32
	var fileSize int64
	buf := make([]byte, SegmentSize)
	for {
		n, err := s.Source.Read(buf)
		if n > 0 {
			dataPacket := &Packet{Payload: append([]byte(nil), buf[:n]...)}
			lastSeq = sendBuffer.Enqueue(dataPacket)
			fileSize += int64(n)
			s.reportProgress(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			s.teardown(&wg)
			return Stats{}, fmt.Errorf("read source: %w", err)
		}
	}

	lastPacket := &Packet{Last: true, Payload: nil}
	lastSeq = sendBuffer.Enqueue(lastPacket)

	ackReceiver.WaitFor(lastSeq, finalAckTimeout)

	s.teardown(&wg)

	if err := s.Source.Close(); err != nil {
		protoLog.Printf("[error] file reader failed to close: %v", err)
	}

	protoLog.Printf("[completed]")

	stats := Stats{
		RunningTime:    time.Since(start),
		FileSize:       fileSize,
		TotalBytesSent: sendBuffer.TotalBytesSent(),
	}
	return stats, nil
}

func (s *Sender) reportProgress(n int) {
	if s.Status != nil {
		s.Status.addBytes(n)
	}
}

func (s *Sender) teardown(wg *sync.WaitGroup) {
	s.ackReceiver.Stop()
	s.sendBuffer.Stop()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(threadJoinTimeout):
		protoLog.Printf("[error] timed out waiting for sender threads to stop")
	}
}
