package filetransfer

import (
	"net"
	"testing"
	"time"
)

func TestAckSenderSendIsMonotonic(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	addr := listener.LocalAddr().(*net.UDPAddr)
	sender, err := NewAckSender(addr.IP, addr.Port)
	if err != nil {
		t.Fatalf("NewAckSender: %v", err)
	}
	defer sender.Close()

	sender.Send(10)
	sender.Send(3) // must not regress below 10

	buf := make([]byte, 64)
	listener.SetReadDeadline(time.Now().Add(time.Second))

	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read first ack: %v", err)
	}
	v, err := DecodeAck(buf[:n])
	if err != nil || v != 10 {
		t.Fatalf("first ack = (%d, %v), want 10", v, err)
	}

	n, _, err = listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read second ack: %v", err)
	}
	v, err = DecodeAck(buf[:n])
	if err != nil || v != 10 {
		t.Fatalf("second ack = (%d, %v), want 10 (monotonic floor)", v, err)
	}
}
